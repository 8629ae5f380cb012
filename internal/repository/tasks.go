package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/models"
	"github.com/google/uuid"
)

const (
	OrderByCreatedAtDesc   = "created_at DESC, id ASC"
	OrderByScheduledForAsc = "scheduled_for ASC NULLS LAST, created_at ASC"
)

type TaskFilter struct {
	Status       *models.TaskStatus
	Statuses     []models.TaskStatus
	AssignedTo   *string
	ParentTaskID *string
	Templates    bool
	OrderBy      string
}

type TaskRepository interface {
	FindByID(ctx context.Context, id string) (models.Task, error)
	FindAll(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
	Update(ctx context.Context, task models.Task) (models.Task, error)
	Delete(ctx context.Context, id string) error
	FindRecurringTemplates(ctx context.Context) ([]models.Task, error)
	FindChildren(ctx context.Context, parentID string) ([]models.Task, error)
}

type SQLiteTaskRepository struct {
	database *sql.DB
}

func NewTaskRepository(database *sql.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{database: database}
}

const taskColumns = `id, title, description, hotel, blok, soba, priority, status,
	created_by, created_by_name, created_by_department,
	assigned_to, assigned_to_name, worker_report, images,
	is_recurring, recurrence_pattern, recurrence_start_date,
	recurrence_week_days, recurrence_month_days, recurrence_year_dates,
	execution_hour, execution_minute, next_occurrence,
	parent_task_id, scheduled_for, completed_at,
	created_at, updated_at`

func (repository *SQLiteTaskRepository) FindByID(ctx context.Context, id string) (models.Task, error) {
	row := repository.database.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id,
	)
	task, err := scanTask(row)
	if err != nil {
		return models.Task{}, fmt.Errorf("finding task by id: %w", err)
	}
	return task, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (repository *SQLiteTaskRepository) FindAll(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE 1=1"

	var args []interface{}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += " AND status IN (" + strings.Join(placeholders, ",") + ")"
	}
	if filter.AssignedTo != nil {
		query += " AND (',' || REPLACE(assigned_to, ' ', '') || ',') LIKE ? ESCAPE '\\'"
		args = append(args, "%,"+likeEscaper.Replace(strings.TrimSpace(*filter.AssignedTo))+",%")
	}
	if filter.ParentTaskID != nil {
		query += " AND parent_task_id = ?"
		args = append(args, *filter.ParentTaskID)
	}
	if filter.Templates {
		query += " AND is_recurring = 1 AND parent_task_id IS NULL"
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = OrderByCreatedAtDesc
	}
	query += " ORDER BY " + orderBy

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (repository *SQLiteTaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusNew
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if task.RecurrencePattern == "" {
		task.RecurrencePattern = "once"
	}

	columns, err := encodeArrays(task)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}

	_, err = repository.database.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Hotel, task.Block, task.Room, task.Priority, task.Status,
		task.CreatedBy, task.CreatedByName, task.CreatedByDepartment,
		task.AssignedTo, task.AssignedToName, task.WorkerReport, columns.images,
		task.IsRecurring, task.RecurrencePattern, task.RecurrenceStartDate,
		columns.weekDays, columns.monthDays, columns.yearDates,
		task.ExecutionHour, task.ExecutionMinute, task.NextOccurrence,
		task.ParentTaskID, task.ScheduledFor, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("creating task: %w", err)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) Update(ctx context.Context, task models.Task) (models.Task, error) {
	task.UpdatedAt = time.Now().UTC()

	columns, err := encodeArrays(task)
	if err != nil {
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}

	result, err := repository.database.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, hotel = ?, blok = ?, soba = ?,
			priority = ?, status = ?,
			assigned_to = ?, assigned_to_name = ?, worker_report = ?, images = ?,
			is_recurring = ?, recurrence_pattern = ?, recurrence_start_date = ?,
			recurrence_week_days = ?, recurrence_month_days = ?, recurrence_year_dates = ?,
			execution_hour = ?, execution_minute = ?, next_occurrence = ?,
			scheduled_for = ?, completed_at = ?,
			updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.Hotel, task.Block, task.Room,
		task.Priority, task.Status,
		task.AssignedTo, task.AssignedToName, task.WorkerReport, columns.images,
		task.IsRecurring, task.RecurrencePattern, task.RecurrenceStartDate,
		columns.weekDays, columns.monthDays, columns.yearDates,
		task.ExecutionHour, task.ExecutionMinute, task.NextOccurrence,
		task.ScheduledFor, task.CompletedAt,
		task.UpdatedAt, task.ID,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("updating task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return models.Task{}, fmt.Errorf("updating task: %w", sql.ErrNoRows)
	}
	return task, nil
}

func (repository *SQLiteTaskRepository) Delete(ctx context.Context, id string) error {
	result, err := repository.database.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("deleting task: %w", sql.ErrNoRows)
	}
	return nil
}

func (repository *SQLiteTaskRepository) FindRecurringTemplates(ctx context.Context) ([]models.Task, error) {
	return repository.FindAll(ctx, TaskFilter{Templates: true, OrderBy: "created_at ASC"})
}

func (repository *SQLiteTaskRepository) FindChildren(ctx context.Context, parentID string) ([]models.Task, error) {
	return repository.FindAll(ctx, TaskFilter{ParentTaskID: &parentID, OrderBy: OrderByScheduledForAsc})
}

type arrayColumns struct {
	images    string
	weekDays  *string
	monthDays *string
	yearDates *string
}

func encodeArrays(task models.Task) (arrayColumns, error) {
	var columns arrayColumns

	images := task.Images
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return columns, fmt.Errorf("encoding images: %w", err)
	}
	columns.images = string(encoded)

	if columns.weekDays, err = nullableJSON(task.RecurrenceWeekDays, len(task.RecurrenceWeekDays)); err != nil {
		return columns, fmt.Errorf("encoding week days: %w", err)
	}
	if columns.monthDays, err = nullableJSON(task.RecurrenceMonthDays, len(task.RecurrenceMonthDays)); err != nil {
		return columns, fmt.Errorf("encoding month days: %w", err)
	}
	if columns.yearDates, err = nullableJSON(task.RecurrenceYearDates, len(task.RecurrenceYearDates)); err != nil {
		return columns, fmt.Errorf("encoding year dates: %w", err)
	}
	return columns, nil
}

func nullableJSON(value any, length int) (*string, error) {
	if length == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	text := string(encoded)
	return &text, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var images string
	var weekDays, monthDays, yearDates sql.NullString

	if err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Hotel, &task.Block, &task.Room, &task.Priority, &task.Status,
		&task.CreatedBy, &task.CreatedByName, &task.CreatedByDepartment,
		&task.AssignedTo, &task.AssignedToName, &task.WorkerReport, &images,
		&task.IsRecurring, &task.RecurrencePattern, &task.RecurrenceStartDate,
		&weekDays, &monthDays, &yearDates,
		&task.ExecutionHour, &task.ExecutionMinute, &task.NextOccurrence,
		&task.ParentTaskID, &task.ScheduledFor, &task.CompletedAt,
		&task.CreatedAt, &task.UpdatedAt,
	); err != nil {
		return models.Task{}, err
	}

	if err := json.Unmarshal([]byte(images), &task.Images); err != nil {
		return models.Task{}, fmt.Errorf("decoding images: %w", err)
	}
	if weekDays.Valid {
		if err := json.Unmarshal([]byte(weekDays.String), &task.RecurrenceWeekDays); err != nil {
			return models.Task{}, fmt.Errorf("decoding week days: %w", err)
		}
	}
	if monthDays.Valid {
		if err := json.Unmarshal([]byte(monthDays.String), &task.RecurrenceMonthDays); err != nil {
			return models.Task{}, fmt.Errorf("decoding month days: %w", err)
		}
	}
	if yearDates.Valid {
		if err := json.Unmarshal([]byte(yearDates.String), &task.RecurrenceYearDates); err != nil {
			return models.Task{}, fmt.Errorf("decoding year dates: %w", err)
		}
	}
	return task, nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
