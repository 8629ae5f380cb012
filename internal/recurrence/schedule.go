package recurrence

import (
	"slices"
	"time"
)

// Details carries the per-unit selections and execution time of a
// recurring template.
type Details struct {
	WeekDays  []int
	MonthDays []int
	YearDates []YearDate
	Hour      *int
	Minute    *int
}

const (
	yearLookahead  = 5
	monthLookahead = 12
	weekWindowDays = 60
)

// ScheduledDates expands a recurring template into at most limit upcoming
// dates, sorted chronologically. Dates at or before now are skipped and the
// expansion never starts earlier than start.
func ScheduledDates(start, now time.Time, pattern string, details Details, limit int) []time.Time {
	if limit <= 0 {
		return nil
	}
	base := start
	if now.After(base) {
		base = now
	}
	location := base.Location()
	hour, minute := executionTime(details)

	custom, ok := parseCanonical(pattern)
	if ok {
		switch {
		case custom.Unit == UnitYears && len(details.YearDates) > 0:
			yearDates := slices.Clone(details.YearDates)
			slices.SortFunc(yearDates, func(a, b YearDate) int {
				if a.Month != b.Month {
					return a.Month - b.Month
				}
				return a.Day - b.Day
			})

			var dates []time.Time
			for offset := 0; offset < yearLookahead && len(dates) < limit; offset++ {
				year := base.Year() + offset
				for _, yearDate := range yearDates {
					if len(dates) >= limit {
						break
					}
					first := time.Date(year, time.Month(yearDate.Month), 1, hour, minute, 0, 0, location)
					date := time.Date(year, first.Month(), min(yearDate.Day, daysIn(first)), hour, minute, 0, 0, location)
					if date.After(now) && !date.Before(base) {
						dates = appendDistinct(dates, date)
					}
				}
			}
			return dates

		case custom.Unit == UnitMonths && len(details.MonthDays) > 0:
			monthDays := slices.Clone(details.MonthDays)
			slices.Sort(monthDays)

			var dates []time.Time
			for offset := 0; offset < monthLookahead && len(dates) < limit; offset++ {
				first := time.Date(base.Year(), base.Month()+time.Month(offset), 1, hour, minute, 0, 0, location)
				lastDay := daysIn(first)
				for _, day := range monthDays {
					if len(dates) >= limit {
						break
					}
					date := time.Date(first.Year(), first.Month(), min(day, lastDay), hour, minute, 0, 0, location)
					if date.After(now) && !date.Before(base) {
						dates = appendDistinct(dates, date)
					}
				}
			}
			return dates

		case custom.Unit == UnitWeeks && len(details.WeekDays) > 0:
			var dates []time.Time
			for offset := 0; offset < weekWindowDays && len(dates) < limit; offset++ {
				date := time.Date(base.Year(), base.Month(), base.Day()+offset, hour, minute, 0, 0, location)
				if slices.Contains(details.WeekDays, int(date.Weekday())) && date.After(now) && !date.Before(base) {
					dates = append(dates, date)
				}
			}
			return dates
		}
	}

	if !IsRecurring(pattern) {
		scheduled := withExecutionTime(base, details)
		if scheduled.After(now) {
			return []time.Time{scheduled}
		}
		return nil
	}

	var dates []time.Time
	current := base
	for index := 0; index < limit; index++ {
		if index > 0 {
			current = nextInterval(current, pattern)
		}
		scheduled := withExecutionTime(current, details)
		if scheduled.After(now) {
			dates = append(dates, scheduled)
		}
	}
	return dates
}

// NextOccurrence returns the first scheduled date after current.
func NextOccurrence(current, now time.Time, pattern string, details *Details) time.Time {
	if details != nil {
		for _, date := range ScheduledDates(current, now, pattern, *details, 2) {
			if date.After(current) {
				return date
			}
		}
	}
	return nextInterval(current, pattern)
}

func nextInterval(current time.Time, pattern string) time.Time {
	if custom, ok := parseCanonical(pattern); ok {
		switch custom.Unit {
		case UnitDays:
			return current.AddDate(0, 0, custom.Count)
		case UnitWeeks:
			return current.AddDate(0, 0, 7*custom.Count)
		case UnitMonths:
			return addMonthsClamped(current, custom.Count)
		case UnitYears:
			return addYearsClamped(current, custom.Count)
		}
	}

	switch pattern {
	case "daily":
		return current.AddDate(0, 0, 1)
	case "weekly":
		return current.AddDate(0, 0, 7)
	case "monthly":
		return addMonthsClamped(current, 1)
	case "yearly":
		return addYearsClamped(current, 1)
	}
	return current
}

// addMonthsClamped keeps the day of month, clamped to the target month's
// length, so Jan 31 + 1 month is Feb 28/29 rather than early March.
func addMonthsClamped(current time.Time, months int) time.Time {
	first := time.Date(current.Year(), current.Month()+time.Month(months), 1,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
	return time.Date(first.Year(), first.Month(), min(current.Day(), daysIn(first)),
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
}

// addYearsClamped moves Feb 29 to Feb 28 in non-leap target years.
func addYearsClamped(current time.Time, years int) time.Time {
	target := time.Date(current.Year()+years, current.Month(), 1,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
	return time.Date(target.Year(), target.Month(), min(current.Day(), daysIn(target)),
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(), current.Location())
}

func daysIn(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

func executionTime(details Details) (int, int) {
	hour, minute := DefaultHour, DefaultMinute
	if details.Hour != nil {
		hour = *details.Hour
	}
	if details.Minute != nil {
		minute = *details.Minute
	}
	return hour, minute
}

func withExecutionTime(date time.Time, details Details) time.Time {
	hour, minute := date.Hour(), date.Minute()
	if details.Hour != nil {
		hour = *details.Hour
	}
	if details.Minute != nil {
		minute = *details.Minute
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// appendDistinct skips date when it equals the last one. Clamped days such
// as the 30th and 31st in February land on the same date.
func appendDistinct(dates []time.Time, date time.Time) []time.Time {
	if len(dates) > 0 && dates[len(dates)-1].Equal(date) {
		return dates
	}
	return append(dates, date)
}
