package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/database"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/repository"
)

// NewTestDatabase returns a migrated in-memory database closed at test end.
func NewTestDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if _, err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateTestTask stores task with a title and assignee filled in when the
// caller left them empty.
func CreateTestTask(t *testing.T, db *sql.DB, task models.Task) models.Task {
	t.Helper()

	if task.Title == "" {
		task.Title = "Hotel Park, Recepcija"
	}
	if task.AssignedTo == "" {
		task.AssignedTo = "u1"
	}
	if task.CreatedByName == "" {
		task.CreatedByName = "Ana"
	}

	created, err := repository.NewTaskRepository(db).Create(context.Background(), task)
	if err != nil {
		t.Fatalf("creating test task: %v", err)
	}
	return created
}
