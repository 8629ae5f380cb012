package recurrence

import (
	"testing"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

func validTaskForm() TaskForm {
	return TaskForm{
		Hotel:           "Hotel Park",
		Block:           "Vila Mirta A-blok",
		Room:            "12",
		Description:     "Curi slavina u kupatilu",
		Priority:        models.PriorityUrgent,
		TechnicianIDs:   []string{"u1", "u2"},
		TechnicianNames: []string{"Marko", "Ivan"},
		Recurrence:      NewForm(),
		CreatedBy:       "op1",
		CreatedByName:   "Ana",
	}
}

func TestTaskForm_ValidOneOff(t *testing.T) {
	assert.Nil(t, validTaskForm().Validate(formNow))
}

func TestTaskForm_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(form *TaskForm)
		field  string
	}{
		{name: "missing hotel", mutate: func(form *TaskForm) { form.Hotel = "" }, field: "hotel"},
		{name: "missing block", mutate: func(form *TaskForm) { form.Block = "" }, field: "blok"},
		{name: "blank description", mutate: func(form *TaskForm) { form.Description = "   " }, field: "description"},
		{name: "no technicians", mutate: func(form *TaskForm) { form.TechnicianIDs = nil }, field: "technician_ids"},
		{name: "blank technician", mutate: func(form *TaskForm) { form.TechnicianIDs = []string{" "} }, field: "technician_ids"},
		{name: "custom hotel without text", mutate: func(form *TaskForm) { form.Hotel = CustomLocation }, field: "custom_hotel"},
		{name: "custom block without text", mutate: func(form *TaskForm) { form.Block = CustomLocation }, field: "custom_blok"},
		{name: "unknown priority", mutate: func(form *TaskForm) { form.Priority = "whenever" }, field: "priority"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			form := validTaskForm()
			test.mutate(&form)

			fieldErrors := form.Validate(formNow)

			require.NotNil(t, fieldErrors)
			assert.Contains(t, fieldErrors, test.field)
		})
	}
}

func TestTaskForm_CustomLocationWithText(t *testing.T) {
	form := validTaskForm()
	form.Hotel = CustomLocation
	form.CustomHotel = "  Vila Jadran "

	assert.Nil(t, form.Validate(formNow))
	assert.Equal(t, "Vila Jadran, Vila Mirta A-blok, Soba 12", form.Title())
}

func TestTaskForm_RecurringNeedsStartDate(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true

	fieldErrors := form.Validate(formNow)

	require.NotNil(t, fieldErrors)
	assert.Equal(t, fieldMessages["recurrence.start_date"], fieldErrors["recurrence.start_date"])
}

func TestTaskForm_RecurringStartDateInPast(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true
	form.Recurrence.StartDate = "2026-10-14"

	fieldErrors := form.Validate(formNow)

	require.NotNil(t, fieldErrors)
	assert.Equal(t, fieldMessages["recurrence.start_date.past"], fieldErrors["recurrence.start_date"])
}

func TestTaskForm_RecurringTodayIsAccepted(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true
	form.Recurrence.StartDate = "2026-10-15"

	assert.Nil(t, form.Validate(formNow))
}

func TestTaskForm_RecurringEmptySelection(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true
	form.Recurrence.StartDate = "2026-10-20"
	form.Recurrence.SetUnit(UnitWeeks)
	form.Recurrence.WeekDays = Selection[int]{}

	fieldErrors := form.Validate(formNow)

	require.NotNil(t, fieldErrors)
	assert.Contains(t, fieldErrors, "recurrence.selection")
}

func TestTaskForm_RecurringExecutionTime(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true
	form.Recurrence.StartDate = "2026-10-20"
	form.Recurrence.SetTime(24, 10)

	fieldErrors := form.Validate(formNow)

	require.NotNil(t, fieldErrors)
	assert.Contains(t, fieldErrors, "recurrence.execution_hour")
	assert.Contains(t, fieldErrors, "recurrence.execution_minute")
}

func TestTaskForm_CreateRequest_OneOff(t *testing.T) {
	request := validTaskForm().CreateRequest()

	assert.Equal(t, "Hotel Park, Vila Mirta A-blok, Soba 12", request.Title)
	assert.Equal(t, "u1,u2", request.AssignedTo)
	assert.Equal(t, "Marko, Ivan", request.AssignedToName)
	assert.Equal(t, string(models.TaskStatusAssignedToRadnik), request.Status)
	assert.Equal(t, PatternOnce, request.RecurrencePattern)
	assert.False(t, request.IsRecurring)
	assert.Nil(t, request.RecurrenceStartDate)
	assert.Nil(t, request.ExecutionHour)
	assert.Nil(t, request.RecurrenceWeekDays)
}

func TestTaskForm_CreateRequest_Recurring(t *testing.T) {
	form := validTaskForm()
	form.IsRecurring = true
	form.Recurrence.SetUnit(UnitWeeks)
	form.Recurrence.SetCount(3)
	form.Recurrence.ToggleWeekDay(3)
	form.Recurrence.ToggleWeekDay(5)
	form.Recurrence.SetTime(8, 15)
	form.Recurrence.StartDate = "2026-10-19"

	request := form.CreateRequest()

	assert.True(t, request.IsRecurring)
	assert.Equal(t, "3_weeks", request.RecurrencePattern)
	require.NotNil(t, request.RecurrenceStartDate)
	assert.Equal(t, "2026-10-19T08:15:00", *request.RecurrenceStartDate)
	assert.Equal(t, []int{1, 3, 5}, request.RecurrenceWeekDays)
	assert.Nil(t, request.RecurrenceMonthDays)
	assert.Nil(t, request.RecurrenceYearDates)
	require.NotNil(t, request.ExecutionMinute)
	assert.Equal(t, 15, *request.ExecutionMinute)
}

func TestFieldErrors_Error(t *testing.T) {
	fieldErrors := FieldErrors{"hotel": "a", "blok": "b"}

	assert.Equal(t, "invalid task form: blok: b; hotel: a", fieldErrors.Error())
}

func TestTaskForm_RecurringRejectsOutOfRangeSelections(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(form *Form)
		expected string
	}{
		{
			name:     "unknown unit",
			modify:   func(form *Form) { form.Unit = "fortnights" },
			expected: "recurrence.unit",
		},
		{
			name: "week day above saturday",
			modify: func(form *Form) {
				form.Unit = UnitWeeks
				form.Count = 2
				form.WeekDays = NewSelection(1, 9)
			},
			expected: "recurrence.week_days",
		},
		{
			name: "month day zero",
			modify: func(form *Form) {
				form.Unit = UnitMonths
				form.Count = 2
				form.MonthDays = NewSelection(0, 15)
			},
			expected: "recurrence.month_days",
		},
		{
			name: "year date past month end",
			modify: func(form *Form) {
				form.Unit = UnitYears
				form.YearDates = []YearDate{{Month: 4, Day: 31}}
			},
			expected: "recurrence.year_dates",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			form := validTaskForm()
			form.IsRecurring = true
			form.Recurrence.StartDate = "2026-10-20"
			test.modify(&form.Recurrence)

			fieldErrors := form.Validate(formNow)

			require.NotNil(t, fieldErrors)
			assert.Contains(t, fieldErrors, test.expected)
		})
	}
}

func TestTaskForm_CreateRequest_NormalizesDecodedForm(t *testing.T) {
	tests := []struct {
		name     string
		form     Form
		pattern  string
		weekDays []int
	}{
		{
			name:     "selection larger than count is truncated",
			form:     Form{Count: 2, Unit: UnitWeeks, WeekDays: NewSelection(1, 2, 3, 4, 5), Hour: 9},
			pattern:  "2_weeks",
			weekDays: []int{1, 2},
		},
		{
			name:    "daily recurrence always runs once a day",
			form:    Form{Count: 5, Unit: UnitDays, Hour: 9},
			pattern: "1_days",
		},
		{
			name:     "weekly count clamps to seven",
			form:     Form{Count: 12, Unit: UnitWeeks, WeekDays: NewSelection(1), Hour: 9},
			pattern:  "7_weeks",
			weekDays: []int{1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			form := validTaskForm()
			form.IsRecurring = true
			form.Recurrence = test.form
			form.Recurrence.StartDate = "2026-10-20"

			request := form.CreateRequest()

			assert.Equal(t, test.pattern, request.RecurrencePattern)
			assert.Equal(t, test.weekDays, request.RecurrenceWeekDays)
		})
	}
}
