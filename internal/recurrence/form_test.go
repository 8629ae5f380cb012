package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewForm_Defaults(t *testing.T) {
	form := NewForm()

	assert.Equal(t, 1, form.Count)
	assert.Equal(t, UnitDays, form.Unit)
	assert.Equal(t, []int{1}, form.WeekDays.Members())
	assert.Equal(t, "1_days", form.Pattern())
}

func TestForm_SetUnitDaysResetsCount(t *testing.T) {
	for _, count := range []int{1, 3, 7, 30, 52} {
		form := NewForm()
		form.SetUnit(UnitYears)
		form.SetCount(count)

		form.SetUnit(UnitDays)

		assert.Equal(t, 1, form.Count, "count %d", count)
	}
}

func TestForm_SetUnitClampsCount(t *testing.T) {
	form := NewForm()
	form.SetUnit(UnitYears)
	form.SetCount(40)

	form.SetUnit(UnitMonths)
	assert.Equal(t, MaxMonthlyCount, form.Count)

	form.SetUnit(UnitWeeks)
	assert.Equal(t, MaxWeeklyCount, form.Count)
}

func TestForm_DecreasingCountTruncatesActiveSelection(t *testing.T) {
	form := NewForm()
	form.SetUnit(UnitWeeks)
	form.SetCount(4)
	form.ToggleWeekDay(5)
	form.ToggleWeekDay(3)
	form.ToggleWeekDay(0)
	assert.Equal(t, []int{1, 5, 3, 0}, form.WeekDays.Members())

	form.SetCount(2)

	assert.Equal(t, []int{1, 5}, form.WeekDays.Members())
}

func TestForm_ToggleIgnoresOutOfRangeDays(t *testing.T) {
	form := NewForm()
	form.SetUnit(UnitMonths)
	form.SetCount(3)

	form.ToggleMonthDay(0)
	form.ToggleMonthDay(32)
	form.ToggleWeekDay(7)

	assert.Equal(t, []int{1}, form.MonthDays.Members())
	assert.Equal(t, []int{1}, form.WeekDays.Members())
}

func TestForm_YearDates(t *testing.T) {
	form := NewForm()
	form.SetUnit(UnitYears)
	form.SetCount(2)

	assert.True(t, form.AddYearDate())
	assert.False(t, form.AddYearDate(), "capacity reached")
	assert.Len(t, form.YearDates, 2)

	assert.True(t, form.UpdateYearDate(1, 2, 31))
	assert.Equal(t, YearDate{Month: 2, Day: 29}, form.YearDates[1])

	assert.True(t, form.RemoveYearDate(0))
	assert.False(t, form.RemoveYearDate(0), "last year date stays")
	assert.Equal(t, []YearDate{{Month: 2, Day: 29}}, form.YearDates)
}

func TestForm_Descriptor_OnlyActiveSelection(t *testing.T) {
	form := NewForm()
	form.SetUnit(UnitMonths)
	form.SetCount(2)
	form.ToggleMonthDay(15)
	form.StartDate = "2026-11-02"
	form.SetTime(7, 30)

	descriptor := form.Descriptor()

	assert.Equal(t, "2_months", descriptor.Pattern())
	assert.Equal(t, []int{1, 15}, descriptor.MonthDays)
	assert.Nil(t, descriptor.WeekDays)
	assert.Nil(t, descriptor.YearDates)
	assert.Equal(t, 7, descriptor.StartDate.Hour())
	assert.Equal(t, 30, descriptor.StartDate.Minute())
}

func TestFormFromTask(t *testing.T) {
	hour, minute := 14, 45

	form := FormFromTask("2_weeks", []int{6, 2, 4}, nil, nil, &hour, &minute)

	assert.Equal(t, 2, form.Count)
	assert.Equal(t, UnitWeeks, form.Unit)
	assert.Equal(t, []int{6, 2}, form.WeekDays.Members())
	assert.Equal(t, []int{1}, form.MonthDays.Members())
	assert.Equal(t, 14, form.Hour)
	assert.Equal(t, 45, form.Minute)
}

func TestFormFromTask_LegacyPattern(t *testing.T) {
	form := FormFromTask("weekly", nil, nil, nil, nil, nil)

	assert.Equal(t, 1, form.Count)
	assert.Equal(t, UnitWeeks, form.Unit)
	assert.Equal(t, DefaultHour, form.Hour)
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(2))
	assert.Equal(t, 30, DaysInMonth(4))
	assert.Equal(t, 31, DaysInMonth(12))
}

func TestForm_Normalize(t *testing.T) {
	tests := []struct {
		name          string
		form          Form
		expectedCount int
		expectedUnit  Unit
		expectedSize  int
	}{
		{name: "unknown unit becomes daily", form: Form{Count: 4, Unit: "fortnights"}, expectedCount: 1, expectedUnit: UnitDays, expectedSize: 1},
		{name: "zero count becomes one", form: Form{Count: 0, Unit: UnitMonths, MonthDays: NewSelection(5, 6)}, expectedCount: 1, expectedUnit: UnitMonths, expectedSize: 1},
		{name: "monthly count clamps to thirty", form: Form{Count: 40, Unit: UnitMonths, MonthDays: NewSelection(1)}, expectedCount: 30, expectedUnit: UnitMonths, expectedSize: 1},
		{name: "year dates truncated to count", form: Form{Count: 1, Unit: UnitYears, YearDates: []YearDate{{Month: 1, Day: 1}, {Month: 6, Day: 1}}}, expectedCount: 1, expectedUnit: UnitYears, expectedSize: 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			form := test.form
			form.Normalize()

			assert.Equal(t, test.expectedCount, form.Count)
			assert.Equal(t, test.expectedUnit, form.Unit)
			assert.Equal(t, test.expectedSize, form.ActiveSize())
		})
	}
}
