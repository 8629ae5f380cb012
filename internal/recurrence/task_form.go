package recurrence

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/go-playground/validator/v10"
)

// CustomLocation is the picker value that switches a location field to its
// free-text variant.
const CustomLocation = "Ostalo"

// TaskForm is the create/edit task dialog as submitted by a dashboard.
type TaskForm struct {
	Hotel               string          `json:"hotel" validate:"required"`
	CustomHotel         string          `json:"custom_hotel"`
	Block               string          `json:"blok" validate:"required"`
	CustomBlock         string          `json:"custom_blok"`
	Room                string          `json:"soba"`
	Description         string          `json:"description" validate:"notblank"`
	Priority            models.Priority `json:"priority" validate:"omitempty,oneof=urgent normal can_wait"`
	TechnicianIDs       []string        `json:"technician_ids" validate:"min=1,dive,notblank"`
	TechnicianNames     []string        `json:"technician_names"`
	Images              []string        `json:"images,omitempty"`
	IsRecurring         bool            `json:"is_recurring"`
	Recurrence          Form            `json:"recurrence"`
	CreatedBy           string          `json:"user_id"`
	CreatedByName       string          `json:"user_name"`
	CreatedByDepartment string          `json:"user_department"`
}

// FieldErrors maps a form field to a user-facing message.
type FieldErrors map[string]string

func (fieldErrors FieldErrors) Error() string {
	fields := make([]string, 0, len(fieldErrors))
	for field := range fieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, fieldErrors[field]))
	}
	return "invalid task form: " + strings.Join(parts, "; ")
}

var fieldMessages = map[string]string{
	"hotel":                       "Molimo izaberite Hotel/Zgradu.",
	"custom_hotel":                "Molimo unesite naziv hotela/zgrade.",
	"blok":                        "Molimo izaberite Blok/Prostoriju.",
	"custom_blok":                 "Molimo unesite blok/prostoriju.",
	"description":                 "Unesite opis problema.",
	"priority":                    "Nepoznat prioritet.",
	"technician_ids":              "Odaberite najmanje jednog majstora.",
	"recurrence.start_date":       "Odaberite datum pocetka za ponavljajuce zadatke.",
	"recurrence.start_date.past":  "Datum pocetka ne moze biti u proslosti.",
	"recurrence.selection":        "Odaberite najmanje jedan dan.",
	"recurrence.unit":             "Nepoznata jedinica ponavljanja.",
	"recurrence.week_days":        "Dani u nedjelji moraju biti izmedju 0 i 6.",
	"recurrence.month_days":       "Dani u mjesecu moraju biti izmedju 1 i 31.",
	"recurrence.year_dates":       "Neispravan datum u godini.",
	"recurrence.execution_hour":   "Sat mora biti izmedju 0 i 23.",
	"recurrence.execution_minute": "Minute moraju biti 0, 15, 30 ili 45.",
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("notblank", func(field validator.FieldLevel) bool {
		return strings.TrimSpace(field.Field().String()) != ""
	})
	validate.RegisterStructValidation(validateCustomLocations, TaskForm{})
	return validate
}

func validateCustomLocations(level validator.StructLevel) {
	form := level.Current().Interface().(TaskForm)
	if form.Hotel == CustomLocation && strings.TrimSpace(form.CustomHotel) == "" {
		level.ReportError(form.CustomHotel, "custom_hotel", "CustomHotel", "custom_required", "")
	}
	if form.Block == CustomLocation && strings.TrimSpace(form.CustomBlock) == "" {
		level.ReportError(form.CustomBlock, "custom_blok", "CustomBlock", "custom_required", "")
	}
}

// Validate checks the form at submission time only. The returned map is
// empty when the form can be sent.
func (form TaskForm) Validate(now time.Time) FieldErrors {
	fieldErrors := FieldErrors{}

	if err := formValidator.Struct(form); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			fieldErrors["form"] = err.Error()
			return fieldErrors
		}
		for _, validationError := range validationErrors {
			field := topLevelField(validationError.Field(), validationError.Namespace())
			if _, seen := fieldErrors[field]; seen {
				continue
			}
			fieldErrors[field] = messageFor(field)
		}
	}

	if form.IsRecurring {
		form.validateRecurrence(now, fieldErrors)
	}

	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

func (form TaskForm) validateRecurrence(now time.Time, fieldErrors FieldErrors) {
	recurrence := form.Recurrence
	start, ok := recurrence.StartDateValue(now.Location())
	if !ok {
		fieldErrors["recurrence.start_date"] = messageFor("recurrence.start_date")
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if start.Before(today) {
			fieldErrors["recurrence.start_date"] = messageFor("recurrence.start_date.past")
		}
	}
	if _, ok := ParseUnit(string(recurrence.Unit)); !ok {
		fieldErrors["recurrence.unit"] = messageFor("recurrence.unit")
	} else if recurrence.ActiveSize() == 0 {
		fieldErrors["recurrence.selection"] = messageFor("recurrence.selection")
	}
	switch recurrence.Unit {
	case UnitWeeks:
		for _, day := range recurrence.WeekDays.Members() {
			if day < 0 || day > 6 {
				fieldErrors["recurrence.week_days"] = messageFor("recurrence.week_days")
			}
		}
	case UnitMonths:
		for _, day := range recurrence.MonthDays.Members() {
			if day < 1 || day > 31 {
				fieldErrors["recurrence.month_days"] = messageFor("recurrence.month_days")
			}
		}
	case UnitYears:
		for _, date := range recurrence.YearDates {
			if date.Month < 1 || date.Month > 12 || date.Day < 1 || date.Day > DaysInMonth(date.Month) {
				fieldErrors["recurrence.year_dates"] = messageFor("recurrence.year_dates")
			}
		}
	}
	if recurrence.Hour < 0 || recurrence.Hour > 23 {
		fieldErrors["recurrence.execution_hour"] = messageFor("recurrence.execution_hour")
	}
	switch recurrence.Minute {
	case 0, 15, 30, 45:
	default:
		fieldErrors["recurrence.execution_minute"] = messageFor("recurrence.execution_minute")
	}
}

// topLevelField turns "technician_ids[0]" into "technician_ids".
func topLevelField(field, namespace string) string {
	if index := strings.IndexByte(field, '['); index >= 0 {
		return field[:index]
	}
	if field == "" {
		return namespace
	}
	return field
}

func messageFor(field string) string {
	if message, ok := fieldMessages[field]; ok {
		return message
	}
	return "Neispravna vrijednost."
}

func (form TaskForm) FinalHotel() string {
	if form.Hotel == CustomLocation {
		return strings.TrimSpace(form.CustomHotel)
	}
	return form.Hotel
}

func (form TaskForm) FinalBlock() string {
	if form.Block == CustomLocation {
		return strings.TrimSpace(form.CustomBlock)
	}
	return form.Block
}

func (form TaskForm) Title() string {
	if form.Room != "" {
		return fmt.Sprintf("%s, %s, Soba %s", form.FinalHotel(), form.FinalBlock(), form.Room)
	}
	return fmt.Sprintf("%s, %s", form.FinalHotel(), form.FinalBlock())
}

// CreateRequest flattens a validated form into the creation payload.
func (form TaskForm) CreateRequest() models.CreateTaskRequest {
	priority := form.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	request := models.CreateTaskRequest{
		Title:             strings.TrimSpace(form.Title()),
		Description:       strings.TrimSpace(form.Description),
		Hotel:             form.FinalHotel(),
		Block:             form.FinalBlock(),
		Priority:          priority,
		UserID:            form.CreatedBy,
		UserName:          form.CreatedByName,
		UserDepartment:    form.CreatedByDepartment,
		Images:            form.Images,
		Status:            string(models.TaskStatusAssignedToRadnik),
		AssignedTo:        strings.Join(form.TechnicianIDs, ","),
		AssignedToName:    strings.Join(form.TechnicianNames, ", "),
		IsRecurring:       form.IsRecurring,
		RecurrencePattern: PatternOnce,
	}
	if form.Room != "" {
		room := form.Room
		request.Room = &room
	}

	if !form.IsRecurring {
		return request
	}

	recurrence := form.Recurrence
	recurrence.Normalize()
	descriptor := recurrence.Descriptor()
	request.RecurrencePattern = descriptor.Pattern()
	if recurrence.StartDate != "" {
		startDate := fmt.Sprintf("%sT%02d:%02d:00", recurrence.StartDate, descriptor.Hour, descriptor.Minute)
		request.RecurrenceStartDate = &startDate
	}
	request.RecurrenceWeekDays = descriptor.WeekDays
	request.RecurrenceMonthDays = descriptor.MonthDays
	request.RecurrenceYearDates = descriptor.YearDates
	hour, minute := descriptor.Hour, descriptor.Minute
	request.ExecutionHour = &hour
	request.ExecutionMinute = &minute
	return request
}
