package models

import "time"

type TaskStatus string

const (
	TaskStatusNew                TaskStatus = "new"
	TaskStatusWithOperator       TaskStatus = "with_operator"
	TaskStatusAssignedToRadnik   TaskStatus = "assigned_to_radnik"
	TaskStatusWithSef            TaskStatus = "with_sef"
	TaskStatusWithExternal       TaskStatus = "with_external"
	TaskStatusReturnedToOperator TaskStatus = "returned_to_operator"
	TaskStatusReturnedToSef      TaskStatus = "returned_to_sef"
	TaskStatusCompleted          TaskStatus = "completed"
	TaskStatusCancelled          TaskStatus = "cancelled"
)

// IsClosed reports whether a task no longer counts as active work.
func (status TaskStatus) IsClosed() bool {
	return status == TaskStatusCompleted || status == TaskStatusCancelled
}

type Priority string

const (
	PriorityUrgent  Priority = "urgent"
	PriorityNormal  Priority = "normal"
	PriorityCanWait Priority = "can_wait"
)

type YearDate struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

type Task struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Hotel               string     `json:"hotel"`
	Block               string     `json:"blok"`
	Room                *string    `json:"soba"`
	Priority            Priority   `json:"priority"`
	Status              TaskStatus `json:"status"`
	CreatedBy           string     `json:"created_by"`
	CreatedByName       string     `json:"created_by_name"`
	CreatedByDepartment string     `json:"created_by_department"`
	AssignedTo          string     `json:"assigned_to"`
	AssignedToName      string     `json:"assigned_to_name"`
	WorkerReport        *string    `json:"worker_report"`
	Images              []string   `json:"images"`

	IsRecurring         bool       `json:"is_recurring"`
	RecurrencePattern   string     `json:"recurrence_pattern"`
	RecurrenceStartDate *time.Time `json:"recurrence_start_date"`
	RecurrenceWeekDays  []int      `json:"recurrence_week_days"`
	RecurrenceMonthDays []int      `json:"recurrence_month_days"`
	RecurrenceYearDates []YearDate `json:"recurrence_year_dates"`
	ExecutionHour       *int       `json:"execution_hour"`
	ExecutionMinute     *int       `json:"execution_minute"`
	NextOccurrence      *time.Time `json:"next_occurrence"`
	ParentTaskID        *string    `json:"parent_task_id"`
	ScheduledFor        *time.Time `json:"scheduled_for"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateTaskRequest is the flat payload accepted by the task creation
// endpoint. Only the selection matching the recurrence unit is non-nil.
type CreateTaskRequest struct {
	Title          string   `json:"title" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Hotel          string   `json:"hotel" validate:"required"`
	Block          string   `json:"blok" validate:"required"`
	Room           *string  `json:"soba"`
	Priority       Priority `json:"priority" validate:"omitempty,oneof=urgent normal can_wait"`
	UserID         string   `json:"userId"`
	UserName       string   `json:"userName"`
	UserDepartment string   `json:"userDepartment"`
	Images         []string `json:"images,omitempty"`
	Status         string   `json:"status" validate:"omitempty,oneof=new with_operator assigned_to_radnik with_sef with_external returned_to_operator returned_to_sef completed cancelled"`
	AssignedTo     string   `json:"assigned_to" validate:"required"`
	AssignedToName string   `json:"assigned_to_name"`

	IsRecurring         bool       `json:"is_recurring"`
	RecurrencePattern   string     `json:"recurrence_pattern"`
	RecurrenceStartDate *string    `json:"recurrence_start_date"`
	RecurrenceWeekDays  []int      `json:"recurrence_week_days" validate:"omitempty,max=7,dive,min=0,max=6"`
	RecurrenceMonthDays []int      `json:"recurrence_month_days" validate:"omitempty,max=31,dive,min=1,max=31"`
	RecurrenceYearDates []YearDate `json:"recurrence_year_dates"`
	ExecutionHour       *int       `json:"execution_hour" validate:"omitempty,min=0,max=23"`
	ExecutionMinute     *int       `json:"execution_minute" validate:"omitempty,oneof=0 15 30 45"`
}
