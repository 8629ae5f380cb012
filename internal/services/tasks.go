package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/push"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/recurrence"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/repository"
	"github.com/go-playground/validator/v10"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Publisher delivers task events to connected dashboards.
type Publisher interface {
	Publish(op, taskID string, payload map[string]any)
}

// TaskUpdate is a partial update; nil fields are left unchanged.
type TaskUpdate struct {
	Status              *models.TaskStatus `json:"status" validate:"omitempty,oneof=new with_operator assigned_to_radnik with_sef with_external returned_to_operator returned_to_sef completed cancelled"`
	Priority            *models.Priority   `json:"priority" validate:"omitempty,oneof=urgent normal can_wait"`
	Description         *string            `json:"description" validate:"omitempty,min=1"`
	AssignedTo          *string            `json:"assigned_to"`
	AssignedToName      *string            `json:"assigned_to_name"`
	WorkerReport        *string            `json:"worker_report"`
	Images              []string           `json:"images"`
	RecurrencePattern   *string            `json:"recurrence_pattern"`
	RecurrenceWeekDays  []int              `json:"recurrence_week_days" validate:"omitempty,max=7,dive,min=0,max=6"`
	RecurrenceMonthDays []int              `json:"recurrence_month_days" validate:"omitempty,max=31,dive,min=1,max=31"`
	RecurrenceYearDates []models.YearDate  `json:"recurrence_year_dates"`
	ExecutionHour       *int               `json:"execution_hour" validate:"omitempty,min=0,max=23"`
	ExecutionMinute     *int               `json:"execution_minute" validate:"omitempty,oneof=0 15 30 45"`
}

type TaskService struct {
	taskRepo  repository.TaskRepository
	processor *RecurringProcessor
	publisher Publisher
	now       func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, processor *RecurringProcessor, publisher Publisher) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		processor: processor,
		publisher: publisher,
		now:       time.Now,
	}
}

func (service *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, error) {
	tasks, err := service.taskRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (service *TaskService) Get(ctx context.Context, id string) (models.Task, error) {
	task, err := service.taskRepo.FindByID(ctx, id)
	if err != nil {
		return models.Task{}, notFound(err)
	}
	return task, nil
}

// Create stores a new task and announces it. A recurring task is kept as a
// template and its first instances are generated right away.
func (service *TaskService) Create(ctx context.Context, request models.CreateTaskRequest) (models.Task, error) {
	if err := validate.Struct(request); err != nil {
		return models.Task{}, fmt.Errorf("%w: %s", ErrInvalidTask, err)
	}

	task := models.Task{
		Title:               strings.TrimSpace(request.Title),
		Description:         strings.TrimSpace(request.Description),
		Hotel:               request.Hotel,
		Block:               request.Block,
		Room:                request.Room,
		Priority:            request.Priority,
		Status:              models.TaskStatus(request.Status),
		CreatedBy:           request.UserID,
		CreatedByName:       request.UserName,
		CreatedByDepartment: request.UserDepartment,
		AssignedTo:          request.AssignedTo,
		AssignedToName:      request.AssignedToName,
		Images:              request.Images,
		RecurrencePattern:   recurrence.PatternOnce,
	}

	if request.IsRecurring {
		if !recurrence.IsRecurring(request.RecurrencePattern) {
			return models.Task{}, fmt.Errorf("%w: unknown recurrence pattern %q", ErrInvalidTask, request.RecurrencePattern)
		}
		if request.RecurrenceStartDate == nil {
			return models.Task{}, fmt.Errorf("%w: recurring task needs a start date", ErrInvalidTask)
		}
		start, ok := ParseStartDate(*request.RecurrenceStartDate)
		if !ok {
			return models.Task{}, fmt.Errorf("%w: invalid start date %q", ErrInvalidTask, *request.RecurrenceStartDate)
		}
		task.IsRecurring = true
		task.RecurrencePattern = request.RecurrencePattern
		task.RecurrenceStartDate = &start
		task.RecurrenceWeekDays = request.RecurrenceWeekDays
		task.RecurrenceMonthDays = request.RecurrenceMonthDays
		task.RecurrenceYearDates = request.RecurrenceYearDates
		task.ExecutionHour = request.ExecutionHour
		task.ExecutionMinute = request.ExecutionMinute
	}

	created, err := service.taskRepo.Create(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	slog.Info("task created", "task_id", created.ID, "recurring", created.IsRecurring)
	service.publish(push.OpTaskAssigned, created)

	if created.IsRecurring && service.processor != nil {
		if _, err := service.processor.EnsureChildren(ctx, created); err != nil {
			slog.Error("generating recurring instances", "task_id", created.ID, "error", err)
		}
		if refreshed, err := service.taskRepo.FindByID(ctx, created.ID); err == nil {
			created = refreshed
		}
	}

	return created, nil
}

func (service *TaskService) Update(ctx context.Context, id string, update TaskUpdate) (models.Task, error) {
	if err := validate.Struct(update); err != nil {
		return models.Task{}, fmt.Errorf("%w: %s", ErrInvalidTask, err)
	}

	task, err := service.taskRepo.FindByID(ctx, id)
	if err != nil {
		return models.Task{}, notFound(err)
	}

	if update.Status != nil && *update.Status != task.Status {
		task.Status = *update.Status
		if task.Status == models.TaskStatusCompleted {
			completedAt := service.now()
			task.CompletedAt = &completedAt
		} else {
			task.CompletedAt = nil
		}
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.AssignedTo != nil {
		task.AssignedTo = *update.AssignedTo
	}
	if update.AssignedToName != nil {
		task.AssignedToName = *update.AssignedToName
	}
	if update.WorkerReport != nil {
		task.WorkerReport = update.WorkerReport
	}
	if update.Images != nil {
		task.Images = update.Images
	}
	if update.RecurrencePattern != nil {
		task.RecurrencePattern = *update.RecurrencePattern
	}
	if update.RecurrenceWeekDays != nil {
		task.RecurrenceWeekDays = update.RecurrenceWeekDays
	}
	if update.RecurrenceMonthDays != nil {
		task.RecurrenceMonthDays = update.RecurrenceMonthDays
	}
	if update.RecurrenceYearDates != nil {
		task.RecurrenceYearDates = update.RecurrenceYearDates
	}
	if update.ExecutionHour != nil {
		task.ExecutionHour = update.ExecutionHour
	}
	if update.ExecutionMinute != nil {
		task.ExecutionMinute = update.ExecutionMinute
	}

	updated, err := service.taskRepo.Update(ctx, task)
	if err != nil {
		return models.Task{}, notFound(err)
	}
	slog.Info("task updated", "task_id", updated.ID, "status", updated.Status)
	service.publish(push.OpTaskUpdated, updated)
	return updated, nil
}

func (service *TaskService) Delete(ctx context.Context, id string) error {
	if err := service.taskRepo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("task deleted", "task_id", id)
	if service.publisher != nil {
		service.publisher.Publish(push.OpTaskDeleted, id, nil)
	}
	return nil
}

func (service *TaskService) publish(op string, task models.Task) {
	if service.publisher == nil {
		return
	}
	payload, err := TaskPayload(task)
	if err != nil {
		slog.Error("encoding task event", "task_id", task.ID, "error", err)
		return
	}
	service.publisher.Publish(op, task.ID, payload)
}

// TaskPayload flattens a task into the JSON object shape sent to clients.
func TaskPayload(task models.Task) (map[string]any, error) {
	encoded, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encoding task: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return payload, nil
}

var startDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseStartDate accepts RFC3339 or a local date with an optional time.
func ParseStartDate(value string) (time.Time, bool) {
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true
	}
	for _, layout := range startDateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	return err
}
