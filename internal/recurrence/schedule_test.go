package recurrence

import (
	"testing"
	"time"
)

func intPointer(value int) *int {
	return &value
}

func TestScheduledDates(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		start    time.Time
		pattern  string
		details  Details
		limit    int
		expected []time.Time
	}{
		{
			name:    "weekly selection skips earlier today",
			start:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
			pattern: "2_weeks",
			details: Details{WeekDays: []int{1, 4}, Hour: intPointer(9), Minute: intPointer(0)},
			limit:   3,
			expected: []time.Time{
				time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC),
				time.Date(2026, 10, 26, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "monthly selection clamps to month length",
			start:   time.Date(2027, 1, 20, 0, 0, 0, 0, time.UTC),
			pattern: "2_months",
			details: Details{MonthDays: []int{31, 15}, Hour: intPointer(8), Minute: intPointer(30)},
			limit:   3,
			expected: []time.Time{
				time.Date(2027, 1, 31, 8, 30, 0, 0, time.UTC),
				time.Date(2027, 2, 15, 8, 30, 0, 0, time.UTC),
				time.Date(2027, 2, 28, 8, 30, 0, 0, time.UTC),
			},
		},
		{
			name:    "monthly days clamped onto one date appear once",
			start:   time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
			pattern: "2_months",
			details: Details{MonthDays: []int{30, 31}, Hour: intPointer(8), Minute: intPointer(0)},
			limit:   3,
			expected: []time.Time{
				time.Date(2027, 2, 28, 8, 0, 0, 0, time.UTC),
				time.Date(2027, 3, 30, 8, 0, 0, 0, time.UTC),
				time.Date(2027, 3, 31, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "yearly dates clamped onto one date appear once",
			start:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			pattern: "2_years",
			details: Details{YearDates: []YearDate{{Month: 2, Day: 28}, {Month: 2, Day: 29}}, Hour: intPointer(8), Minute: intPointer(0)},
			limit:   2,
			expected: []time.Time{
				time.Date(2027, 2, 28, 8, 0, 0, 0, time.UTC),
				time.Date(2028, 2, 28, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "yearly dates sorted and clamped",
			start:   time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC),
			pattern: "2_years",
			details: Details{YearDates: []YearDate{{Month: 12, Day: 25}, {Month: 2, Day: 29}}},
			limit:   3,
			expected: []time.Time{
				time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC),
				time.Date(2027, 2, 28, 9, 0, 0, 0, time.UTC),
				time.Date(2027, 12, 25, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "interval keeps start time without execution time",
			start:   time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC),
			pattern: "3_days",
			limit:   3,
			expected: []time.Time{
				time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC),
				time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC),
				time.Date(2026, 10, 22, 7, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "legacy weekly steps seven days",
			start:   time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
			pattern: "weekly",
			details: Details{Hour: intPointer(6), Minute: intPointer(45)},
			limit:   2,
			expected: []time.Time{
				time.Date(2026, 10, 20, 6, 45, 0, 0, time.UTC),
				time.Date(2026, 10, 27, 6, 45, 0, 0, time.UTC),
			},
		},
		{
			name:    "one-off task",
			start:   time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
			pattern: PatternOnce,
			details: Details{Hour: intPointer(12)},
			limit:   8,
			expected: []time.Time{
				time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			name:    "zero limit",
			start:   time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
			pattern: "1_days",
			limit:   0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := ScheduledDates(test.start, now, test.pattern, test.details, test.limit)
			if len(result) != len(test.expected) {
				t.Fatalf("expected %d dates, got %d: %v", len(test.expected), len(result), result)
			}
			for index, expected := range test.expected {
				if !result[index].Equal(expected) {
					t.Errorf("date %d: expected %v, got %v", index, expected, result[index])
				}
			}
		})
	}
}

func TestScheduledDates_NeverBeforeNow(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	patterns := []string{"1_days", "2_weeks", "3_months", "1_years", "monthly"}

	for _, pattern := range patterns {
		details := Details{WeekDays: []int{0, 3}, MonthDays: []int{1, 20}, YearDates: []YearDate{{Month: 1, Day: 1}}}
		for _, date := range ScheduledDates(start, now, pattern, details, 8) {
			if !date.After(now) {
				t.Errorf("%s: %v is not after %v", pattern, date, now)
			}
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		current  time.Time
		pattern  string
		details  *Details
		expected time.Time
	}{
		{
			name:     "month end clamps",
			current:  time.Date(2027, 1, 31, 9, 0, 0, 0, time.UTC),
			pattern:  "1_months",
			expected: time.Date(2027, 2, 28, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "leap day rolls to february 28",
			current:  time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC),
			pattern:  "1_years",
			expected: time.Date(2029, 2, 28, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "week selection picks next selected day",
			current:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			pattern:  "2_weeks",
			details:  &Details{WeekDays: []int{1, 4}, Hour: intPointer(9), Minute: intPointer(0)},
			expected: time.Date(2026, 10, 22, 9, 0, 0, 0, time.UTC),
		},
		{
			name:     "unknown pattern stays put",
			current:  time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
			pattern:  "sometimes",
			expected: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := NextOccurrence(test.current, now, test.pattern, test.details)
			if !result.Equal(test.expected) {
				t.Errorf("expected %v, got %v", test.expected, result)
			}
		})
	}
}
