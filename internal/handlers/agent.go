package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/recurrence"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/taskcache"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/upstream"
	"github.com/go-chi/chi/v5"
)

// TaskAPI is the upstream task service the agent writes through.
type TaskAPI interface {
	CreateTask(ctx context.Context, request models.CreateTaskRequest) (map[string]any, error)
	UpdateTask(ctx context.Context, id string, updates map[string]any) (map[string]any, error)
	DeleteTask(ctx context.Context, id string) error
}

// AgentHandler answers dashboard reads from the local task cache and sends
// writes upstream, reconciling the cache with the server's answer.
type AgentHandler struct {
	store *taskcache.Store
	api   TaskAPI
	now   func() time.Time
}

func NewAgentHandler(store *taskcache.Store, api TaskAPI) *AgentHandler {
	return &AgentHandler{
		store: store,
		api:   api,
		now:   time.Now,
	}
}

func (handler *AgentHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	assignedTo := r.URL.Query().Get("assigned_to")

	tasks := []taskcache.Task{}
	for _, task := range handler.store.Tasks() {
		if status != "" && task.Status() != status {
			continue
		}
		if assignedTo != "" && !slices.Contains(task.AssignedToIDs(), assignedTo) {
			continue
		}
		tasks = append(tasks, task)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":  tasks,
		"loaded": handler.store.Loaded(),
	})
}

func (handler *AgentHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := handler.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

// Recurrence returns the editable recurrence form of a cached task.
func (handler *AgentHandler) Recurrence(w http.ResponseWriter, r *http.Request) {
	task, ok := handler.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	pattern := task.Text("recurrence_pattern")
	if pattern == "" {
		pattern = recurrence.PatternOnce
	}

	form := recurrence.FormFromTask(
		pattern,
		intsField(task.Fields["recurrence_week_days"]),
		intsField(task.Fields["recurrence_month_days"]),
		yearDatesField(task.Fields["recurrence_year_dates"]),
		intField(task.Fields["execution_hour"]),
		intField(task.Fields["execution_minute"]),
	)
	if start, ok := task.Time("recurrence_start_date"); ok {
		form.StartDate = start.In(time.Local).Format(time.DateOnly)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"form":  form,
		"label": recurrence.HumanizeLabel(&pattern),
	})
}

func (handler *AgentHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var form recurrence.TaskForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if fieldErrors := form.Validate(handler.now()); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrors})
		return
	}

	created, err := handler.api.CreateTask(r.Context(), form.CreateRequest())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}

	handler.store.Upsert(taskcache.Payload(created), taskcache.UpsertOptions{Prepend: true})
	writeJSON(w, http.StatusCreated, map[string]any{"task": created})
}

// UpdateStatus applies the change to the cache before the server confirms
// it and restores the previous list if the server rejects it.
func (handler *AgentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if status, _ := updates["status"].(string); status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	rollback := handler.store.OptimisticUpdate(id, taskcache.Payload(updates))

	updated, err := handler.api.UpdateTask(r.Context(), id, updates)
	if err != nil {
		rollback()
		slog.Warn("rolled back optimistic update", "task_id", id, "error", err)
		writeUpstreamError(w, err)
		return
	}

	handler.store.Upsert(taskcache.Payload(updated), taskcache.UpsertOptions{})
	writeJSON(w, http.StatusOK, map[string]any{"task": updated})
}

func (handler *AgentHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := handler.api.DeleteTask(r.Context(), id); err != nil {
		writeUpstreamError(w, err)
		return
	}
	handler.store.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *AgentHandler) RecurrenceLabel(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pattern is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pattern":   pattern,
		"recurring": recurrence.IsRecurring(pattern),
		"label":     recurrence.HumanizeLabel(&pattern),
	})
}

func (handler *AgentHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"loaded":            handler.store.Loaded(),
		"tasks":             len(handler.store.Tasks()),
		"pending_hydration": handler.store.PendingHydration(),
	})
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var apiError *upstream.APIError
	if errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": apiError.Message})
		return
	}
	slog.Error("calling task api", "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func intField(value any) *int {
	switch number := value.(type) {
	case float64:
		converted := int(number)
		return &converted
	case int:
		return &number
	case json.Number:
		if parsed, err := number.Int64(); err == nil {
			converted := int(parsed)
			return &converted
		}
	}
	return nil
}

func intsField(value any) []int {
	items, ok := value.([]any)
	if !ok {
		if ints, ok := value.([]int); ok {
			return ints
		}
		return nil
	}
	ints := make([]int, 0, len(items))
	for _, item := range items {
		if number := intField(item); number != nil {
			ints = append(ints, *number)
		}
	}
	return ints
}

func yearDatesField(value any) []recurrence.YearDate {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var dates []recurrence.YearDate
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		month, day := intField(entry["month"]), intField(entry["day"])
		if month == nil || day == nil {
			continue
		}
		dates = append(dates, recurrence.YearDate{Month: *month, Day: *day})
	}
	return dates
}
