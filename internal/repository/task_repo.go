package repository

import (
	"context"
	"database/sql"
	"errors"

	"triproom/internal/database"
	"triproom/internal/models"
)

// TaskRepository handles the room task board
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, room_id, title, description, assignee, COALESCE(due_date, ''), status, created_at`

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	if err := row.Scan(&t.ID, &t.RoomID, &t.Title, &t.Description, &t.Assignee, &t.DueDate, &t.Status, &t.CreatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTask inserts task and fills in its ID and CreatedAt
func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	ts := now()
	query := `
		INSERT INTO tasks (room_id, title, description, assignee, due_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		task.RoomID, task.Title, task.Description, task.Assignee,
		nullString(task.DueDate), task.Status, ts)
	if err != nil {
		return insertError(r.db, "create task", err)
	}
	task.ID = id
	task.CreatedAt = ts
	return nil
}

// GetTask retrieves a task by ID
func (r *TaskRepository) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get task", err)
	}
	return task, nil
}

// ListTasks returns the room's tasks by due date, undated last, newest
// first within a date.
func (r *TaskRepository) ListTasks(ctx context.Context, roomID int64) ([]models.Task, error) {
	query := "SELECT " + taskColumns + ` FROM tasks
		WHERE room_id = ?
		ORDER BY CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date, created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, storeError("query tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeError("scan task", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate tasks", err)
	}
	return tasks, nil
}

// UpdateStatus sets a task's status. It reports false when no task has id.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE tasks SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, storeError("update task status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, storeError("read update result", err)
	}
	return n > 0, nil
}

// DeleteTask removes a task; a missing task is not an error
func (r *TaskRepository) DeleteTask(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return storeError("delete task", err)
	}
	return nil
}

// CountPending counts tasks whose status is exactly "pending"
func (r *TaskRepository) CountPending(ctx context.Context, rooms database.RoomIDSet) (int, error) {
	return countIn(ctx, r.db, "tasks", "status = ?", rooms, models.TaskStatusPending)
}
