package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/repository"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/services"
	"github.com/go-chi/chi/v5"
)

// APIHandler serves the task REST API consumed by agents and dashboards.
type APIHandler struct {
	taskService *services.TaskService
}

func NewAPIHandler(taskService *services.TaskService) *APIHandler {
	return &APIHandler{taskService: taskService}
}

func (handler *APIHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := repository.TaskFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		s := models.TaskStatus(status)
		filter.Status = &s
	}
	if assignedTo := r.URL.Query().Get("assigned_to"); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}

	tasks, err := handler.taskService.List(ctx, filter)
	if err != nil {
		slog.Error("listing tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load tasks"})
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (handler *APIHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := handler.taskService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (handler *APIHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var request models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	task, err := handler.taskService.Create(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": task})
}

func (handler *APIHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var update services.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	task, err := handler.taskService.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (handler *APIHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := handler.taskService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
	case errors.Is(err, services.ErrInvalidTask):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("handling task request", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
