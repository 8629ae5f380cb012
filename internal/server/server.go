package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/config"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/handlers"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/push"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/repository"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/services"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/taskcache"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router  *chi.Mux
	address string
}

// NewAPI builds the task API server. The returned processor is shared with
// the recurring ticker so generated instances reach the same hub.
func NewAPI(database *sql.DB, cfg config.Config, hub *push.Hub) (*Server, *services.RecurringProcessor) {
	taskRepo := repository.NewTaskRepository(database)
	processor := services.NewRecurringProcessor(taskRepo, hub)
	taskService := services.NewTaskService(taskRepo, processor, hub)

	apiHandler := handlers.NewAPIHandler(taskService)

	router := newRouter()
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Get("/ws", hub.HandleWS)

	router.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", apiHandler.ListTasks)
		r.Post("/", apiHandler.CreateTask)
		r.Get("/{id}", apiHandler.GetTask)
		r.Patch("/{id}", apiHandler.UpdateTask)
		r.Delete("/{id}", apiHandler.DeleteTask)
	})

	return &Server{router: router, address: ":" + cfg.Port}, processor
}

// NewAgent builds the dashboard-facing server over the local task cache.
func NewAgent(cfg config.Config, store *taskcache.Store, api handlers.TaskAPI) *Server {
	agentHandler := handlers.NewAgentHandler(store, api)

	router := newRouter()
	router.Get("/health", agentHandler.Health)
	router.Get("/recurrence/label", agentHandler.RecurrenceLabel)

	router.Route("/tasks", func(r chi.Router) {
		r.Get("/", agentHandler.ListTasks)
		r.Post("/", agentHandler.CreateTask)
		r.Get("/{id}", agentHandler.GetTask)
		r.Get("/{id}/recurrence", agentHandler.Recurrence)
		r.Patch("/{id}/status", agentHandler.UpdateStatus)
		r.Delete("/{id}", agentHandler.DeleteTask)
	})

	return &Server{router: router, address: ":" + cfg.AgentPort}
}

func newRouter() *chi.Mux {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	return router
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (server *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              server.address,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", server.address)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "address", server.address)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
