package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/push"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/recurrence"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/repository"
)

// ChildrenToMaintain is how many open instances each recurring template
// keeps scheduled ahead.
const ChildrenToMaintain = 8

const dayLayout = "2006-01-02"

type ProcessingResult struct {
	TemplateID string `json:"template_id"`
	Created    int    `json:"created"`
	Error      string `json:"error,omitempty"`
}

type ProcessingStats struct {
	Processed int                `json:"processed"`
	Total     int                `json:"total"`
	Results   []ProcessingResult `json:"results"`
}

// RecurringProcessor turns recurring templates into dated task instances.
type RecurringProcessor struct {
	taskRepo  repository.TaskRepository
	publisher Publisher
	now       func() time.Time
}

func NewRecurringProcessor(taskRepo repository.TaskRepository, publisher Publisher) *RecurringProcessor {
	return &RecurringProcessor{
		taskRepo:  taskRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (processor *RecurringProcessor) ProcessAll(ctx context.Context) (ProcessingStats, error) {
	templates, err := processor.taskRepo.FindRecurringTemplates(ctx)
	if err != nil {
		return ProcessingStats{}, fmt.Errorf("finding recurring templates: %w", err)
	}

	stats := ProcessingStats{Total: len(templates)}
	for _, template := range templates {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		created, err := processor.EnsureChildren(ctx, template)
		if err != nil {
			slog.Error("processing recurring template", "task_id", template.ID, "error", err)
			stats.Results = append(stats.Results, ProcessingResult{TemplateID: template.ID, Error: err.Error()})
			continue
		}
		if created > 0 {
			stats.Results = append(stats.Results, ProcessingResult{TemplateID: template.ID, Created: created})
			stats.Processed += created
		}
	}

	slog.Info("processed recurring templates", "templates", stats.Total, "created", stats.Processed)
	return stats, nil
}

// EnsureChildren tops up the open instances of template to
// ChildrenToMaintain and moves the template's next occurrence forward. A day
// that already has an instance, open or closed, is never scheduled again.
func (processor *RecurringProcessor) EnsureChildren(ctx context.Context, template models.Task) (int, error) {
	children, err := processor.taskRepo.FindChildren(ctx, template.ID)
	if err != nil {
		return 0, fmt.Errorf("finding children: %w", err)
	}

	existingDays := make(map[string]bool)
	active := 0
	for _, child := range children {
		if child.ScheduledFor != nil {
			existingDays[child.ScheduledFor.In(time.Local).Format(dayLayout)] = true
		}
		if !child.Status.IsClosed() {
			active++
		}
	}

	now := processor.now()
	details := templateDetails(template)
	start := now
	if template.RecurrenceStartDate != nil {
		start = template.RecurrenceStartDate.In(now.Location())
	}

	created := 0
	if missing := ChildrenToMaintain - active; missing > 0 {
		dates := recurrence.ScheduledDates(start, now, template.RecurrencePattern, details, ChildrenToMaintain+active+10)
		for _, date := range dates {
			if created >= missing {
				break
			}
			day := date.In(time.Local).Format(dayLayout)
			if existingDays[day] {
				continue
			}
			child, err := processor.createChild(ctx, template, date)
			if err != nil {
				return created, err
			}
			existingDays[day] = true
			created++
			slog.Info("created recurring instance", "template_id", template.ID, "task_id", child.ID, "scheduled_for", date)
		}
	}

	if upcoming := recurrence.ScheduledDates(start, now, template.RecurrencePattern, details, ChildrenToMaintain); len(upcoming) > 0 {
		next := upcoming[0]
		if template.NextOccurrence == nil || !template.NextOccurrence.Equal(next) {
			template.NextOccurrence = &next
			if _, err := processor.taskRepo.Update(ctx, template); err != nil {
				return created, fmt.Errorf("updating next occurrence: %w", err)
			}
		}
	}

	return created, nil
}

func (processor *RecurringProcessor) createChild(ctx context.Context, template models.Task, scheduledFor time.Time) (models.Task, error) {
	parentID := template.ID
	child, err := processor.taskRepo.Create(ctx, models.Task{
		Title:               template.Title,
		Description:         template.Description,
		Hotel:               template.Hotel,
		Block:               template.Block,
		Room:                template.Room,
		Priority:            template.Priority,
		Status:              models.TaskStatusAssignedToRadnik,
		CreatedBy:           template.CreatedBy,
		CreatedByName:       template.CreatedByName,
		CreatedByDepartment: template.CreatedByDepartment,
		AssignedTo:          template.AssignedTo,
		AssignedToName:      template.AssignedToName,
		Images:              template.Images,
		RecurrencePattern:   template.RecurrencePattern,
		ParentTaskID:        &parentID,
		ScheduledFor:        &scheduledFor,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("creating recurring instance: %w", err)
	}

	if processor.publisher != nil {
		payload, err := TaskPayload(child)
		if err != nil {
			slog.Error("encoding task event", "task_id", child.ID, "error", err)
		} else {
			processor.publisher.Publish(push.OpTaskAssigned, child.ID, payload)
		}
	}
	return child, nil
}

func templateDetails(template models.Task) recurrence.Details {
	return recurrence.Details{
		WeekDays:  template.RecurrenceWeekDays,
		MonthDays: template.RecurrenceMonthDays,
		YearDates: template.RecurrenceYearDates,
		Hour:      template.ExecutionHour,
		Minute:    template.ExecutionMinute,
	}
}
