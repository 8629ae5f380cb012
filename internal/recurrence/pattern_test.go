package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPattern(t *testing.T) {
	assert.Equal(t, "3_weeks", BuildPattern(3, UnitWeeks))
	assert.Equal(t, "1_days", BuildPattern(1, UnitDays))
}

func TestParsePattern_RoundTrip(t *testing.T) {
	units := []Unit{UnitDays, UnitWeeks, UnitMonths, UnitYears}
	for count := 1; count <= 52; count++ {
		for _, unit := range units {
			assert.Equal(t, Pattern{Count: count, Unit: unit}, ParsePattern(BuildPattern(count, unit)))
		}
	}
}

func TestParsePattern_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    Pattern
	}{
		{name: "garbage", pattern: "garbage", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "empty", pattern: "", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "once", pattern: "once", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "zero count", pattern: "0_weeks", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "unknown unit", pattern: "3_hours", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "legacy daily", pattern: "daily", want: Pattern{Count: 1, Unit: UnitDays}},
		{name: "legacy weekly", pattern: "weekly", want: Pattern{Count: 1, Unit: UnitWeeks}},
		{name: "legacy monthly", pattern: "monthly", want: Pattern{Count: 1, Unit: UnitMonths}},
		{name: "legacy yearly", pattern: "yearly", want: Pattern{Count: 1, Unit: UnitYears}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, ParsePattern(test.pattern))
		})
	}
}

func TestHumanizeLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "1_days", want: "Svakog dana"},
		{pattern: "2_days", want: "Svaka 2 dana"},
		{pattern: "1_weeks", want: "Jednom nedjeljno"},
		{pattern: "3_weeks", want: "3 puta nedjeljno"},
		{pattern: "1_months", want: "Jednom mjesečno"},
		{pattern: "5_months", want: "5 puta mjesečno"},
		{pattern: "1_years", want: "Jednom godišnje"},
		{pattern: "4_years", want: "4 puta godišnje"},
		{pattern: "daily", want: "Svakog dana"},
		{pattern: "weekly", want: "Nedjeljno"},
		{pattern: "monthly", want: "Mjesečno"},
		{pattern: "yearly", want: "Godišnje"},
		{pattern: "every full moon", want: "every full moon"},
	}

	for _, test := range tests {
		t.Run(test.pattern, func(t *testing.T) {
			pattern := test.pattern
			label := HumanizeLabel(&pattern)
			require.NotNil(t, label)
			assert.Equal(t, test.want, *label)
		})
	}
}

func TestHumanizeLabel_NilForOnce(t *testing.T) {
	once := PatternOnce
	assert.Nil(t, HumanizeLabel(nil))
	assert.Nil(t, HumanizeLabel(&once))
}

func TestIsRecurring(t *testing.T) {
	assert.True(t, IsRecurring("2_weeks"))
	assert.True(t, IsRecurring("monthly"))
	assert.False(t, IsRecurring("once"))
	assert.False(t, IsRecurring(""))
	assert.False(t, IsRecurring("sometimes"))
}
