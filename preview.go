package main

import (
	"fmt"
	"io"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/recurrence"
	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	var (
		start     string
		count     int
		weekDays  []int
		monthDays []int
		yearDates []string
		hour      int
		minute    int
	)

	cmd := &cobra.Command{
		Use:   "preview [pattern]",
		Short: "Print the label and upcoming dates of a recurrence pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			startDate := now
			if start != "" {
				parsed, err := time.ParseInLocation(time.DateOnly, start, time.Local)
				if err != nil {
					return fmt.Errorf("parsing start date: %w", err)
				}
				startDate = parsed
			}

			details := recurrence.Details{
				WeekDays:  weekDays,
				MonthDays: monthDays,
				Hour:      &hour,
				Minute:    &minute,
			}
			for _, value := range yearDates {
				var date models.YearDate
				if _, err := fmt.Sscanf(value, "%d-%d", &date.Month, &date.Day); err != nil {
					return fmt.Errorf("parsing year date %q: expected MM-DD", value)
				}
				details.YearDates = append(details.YearDates, date)
			}

			writePreview(cmd.OutOrStdout(), args[0], startDate, now, details, count)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVarP(&count, "count", "n", 8, "number of dates to print")
	cmd.Flags().IntSliceVar(&weekDays, "week-days", nil, "week days, 0 is Sunday")
	cmd.Flags().IntSliceVar(&monthDays, "month-days", nil, "days of the month")
	cmd.Flags().StringSliceVar(&yearDates, "year-dates", nil, "dates of the year as MM-DD")
	cmd.Flags().IntVar(&hour, "hour", recurrence.DefaultHour, "execution hour")
	cmd.Flags().IntVar(&minute, "minute", recurrence.DefaultMinute, "execution minute")

	return cmd
}

func writePreview(w io.Writer, pattern string, start, now time.Time, details recurrence.Details, count int) {
	label := recurrence.HumanizeLabel(&pattern)
	if label == nil {
		fmt.Fprintf(w, "%s: does not repeat\n", pattern)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", pattern, *label)

	dates := recurrence.ScheduledDates(start, now, pattern, details, count)
	if len(dates) == 0 {
		fmt.Fprintln(w, "no upcoming dates")
		return
	}
	for _, date := range dates {
		fmt.Fprintf(w, "  %s\n", date.Format("Mon 2006-01-02 15:04"))
	}
}
