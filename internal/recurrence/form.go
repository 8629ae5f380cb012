package recurrence

import (
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
)

const (
	DefaultHour   = 9
	DefaultMinute = 0

	dateLayout = "2006-01-02"
)

type YearDate = models.YearDate

// DaysInMonth fixes February at 29 so a yearly date is valid in every year.
func DaysInMonth(month int) int {
	daysPerMonth := [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if month < 1 || month > 12 {
		return 31
	}
	return daysPerMonth[month-1]
}

// Descriptor is what the builder emits for the task generator. Only the
// selection that matches Unit is non-nil.
type Descriptor struct {
	Count     int
	Unit      Unit
	WeekDays  []int
	MonthDays []int
	YearDates []YearDate
	Hour      int
	Minute    int
	StartDate time.Time
}

func (descriptor Descriptor) Pattern() string {
	return BuildPattern(descriptor.Count, descriptor.Unit)
}

// Form is the editable recurrence state of a task dialog. It lives for one
// dialog session and is never stored.
type Form struct {
	Count     int            `json:"count"`
	Unit      Unit           `json:"unit"`
	WeekDays  Selection[int] `json:"week_days"`
	MonthDays Selection[int] `json:"month_days"`
	YearDates []YearDate     `json:"year_dates"`
	Hour      int            `json:"execution_hour"`
	Minute    int            `json:"execution_minute"`
	StartDate string         `json:"start_date,omitempty"`
}

func NewForm() Form {
	return Form{
		Count:     1,
		Unit:      UnitDays,
		WeekDays:  NewSelection(1),
		MonthDays: NewSelection(1),
		YearDates: []YearDate{{Month: 1, Day: 1}},
		Hour:      DefaultHour,
		Minute:    DefaultMinute,
	}
}

// FormFromTask rebuilds editable selections from a persisted task. Missing
// selections and times fall back to the dialog defaults.
func FormFromTask(pattern string, weekDays, monthDays []int, yearDates []YearDate, hour, minute *int) Form {
	form := NewForm()
	parsed := ParsePattern(pattern)
	form.Count = parsed.Count
	form.Unit = parsed.Unit

	if len(weekDays) > 0 {
		form.WeekDays = NewSelection(weekDays...)
	}
	if len(monthDays) > 0 {
		form.MonthDays = NewSelection(monthDays...)
	}
	if len(yearDates) > 0 {
		form.YearDates = append([]YearDate(nil), yearDates...)
	}
	if hour != nil {
		form.Hour = *hour
	}
	if minute != nil {
		form.Minute = *minute
	}
	form.syncSelections()
	return form
}

func (form *Form) Pattern() string {
	return BuildPattern(form.Count, form.Unit)
}

// SetUnit applies the unit side effects: a daily recurrence always runs
// once per day, weekly counts stop at 7 and monthly counts at 30.
func (form *Form) SetUnit(unit Unit) {
	form.Unit = unit
	switch unit {
	case UnitDays:
		form.Count = 1
	case UnitWeeks:
		form.Count = min(form.Count, MaxWeeklyCount)
	case UnitMonths:
		form.Count = min(form.Count, MaxMonthlyCount)
	}
	form.syncSelections()
}

func (form *Form) SetCount(count int) {
	if count < 1 {
		count = 1
	}
	form.Count = count
	form.syncSelections()
}

func (form *Form) ToggleWeekDay(day int) {
	if day < 0 || day > 6 {
		return
	}
	form.WeekDays = form.WeekDays.Toggle(day, form.Count)
}

func (form *Form) ToggleMonthDay(day int) {
	if day < 1 || day > 31 {
		return
	}
	form.MonthDays = form.MonthDays.Toggle(day, form.Count)
}

// AddYearDate appends January 1st while there is room left.
func (form *Form) AddYearDate() bool {
	if len(form.YearDates) >= form.Count {
		return false
	}
	form.YearDates = append(form.YearDates, YearDate{Month: 1, Day: 1})
	return true
}

func (form *Form) RemoveYearDate(index int) bool {
	if len(form.YearDates) <= 1 || index < 0 || index >= len(form.YearDates) {
		return false
	}
	updated := make([]YearDate, 0, len(form.YearDates)-1)
	updated = append(updated, form.YearDates[:index]...)
	form.YearDates = append(updated, form.YearDates[index+1:]...)
	return true
}

func (form *Form) UpdateYearDate(index, month, day int) bool {
	if index < 0 || index >= len(form.YearDates) || month < 1 || month > 12 || day < 1 {
		return false
	}
	updated := append([]YearDate(nil), form.YearDates...)
	updated[index] = YearDate{Month: month, Day: min(day, DaysInMonth(month))}
	form.YearDates = updated
	return true
}

func (form *Form) SetTime(hour, minute int) {
	form.Hour = hour
	form.Minute = minute
}

// Normalize reapplies the unit clamps and truncation, e.g. after decoding a
// form from JSON.
func (form *Form) Normalize() {
	if _, ok := ParseUnit(string(form.Unit)); !ok {
		form.Unit = UnitDays
	}
	if form.Count < 1 {
		form.Count = 1
	}
	form.SetUnit(form.Unit)
}

// ActiveSize is the size of the selection the unit makes active. Daily
// recurrences have no selection and report one.
func (form *Form) ActiveSize() int {
	switch form.Unit {
	case UnitWeeks:
		return form.WeekDays.Len()
	case UnitMonths:
		return form.MonthDays.Len()
	case UnitYears:
		return len(form.YearDates)
	}
	return 1
}

func (form *Form) StartDateValue(location *time.Location) (time.Time, bool) {
	if form.StartDate == "" {
		return time.Time{}, false
	}
	if location == nil {
		location = time.Local
	}
	parsed, err := time.ParseInLocation(dateLayout, form.StartDate, location)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func (form *Form) Descriptor() Descriptor {
	descriptor := Descriptor{
		Count:  form.Count,
		Unit:   form.Unit,
		Hour:   form.Hour,
		Minute: form.Minute,
	}
	if start, ok := form.StartDateValue(time.Local); ok {
		descriptor.StartDate = time.Date(start.Year(), start.Month(), start.Day(), form.Hour, form.Minute, 0, 0, start.Location())
	}
	switch form.Unit {
	case UnitWeeks:
		descriptor.WeekDays = form.WeekDays.Members()
	case UnitMonths:
		descriptor.MonthDays = form.MonthDays.Members()
	case UnitYears:
		descriptor.YearDates = append([]YearDate(nil), form.YearDates...)
	}
	return descriptor
}

func (form *Form) syncSelections() {
	switch form.Unit {
	case UnitWeeks:
		form.WeekDays = form.WeekDays.Truncate(form.Count)
	case UnitMonths:
		form.MonthDays = form.MonthDays.Truncate(form.Count)
	case UnitYears:
		if len(form.YearDates) > form.Count {
			form.YearDates = append([]YearDate(nil), form.YearDates[:form.Count]...)
		}
	}
}
