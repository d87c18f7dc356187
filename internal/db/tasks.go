package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dori/swimlane/internal/model"
	"github.com/google/uuid"
)

const taskColumns = `id, title, description, status, priority, assignee_id,
	due_date, project_id, created_at, updated_at`

// ListTasksForProject returns every task of the project, including tasks
// whose status the board does not recognize. Order is position, then
// creation time, so repeated calls deliver the same order. An unknown
// project is model.ErrNotFound, not an empty list.
func (db *DB) ListTasksForProject(ctx context.Context, projectID string) ([]model.Task, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("list tasks for project %s: %w", projectID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("project %s: %w", projectID, model.ErrNotFound)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY position, created_at, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks for project %s: %w", projectID, err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("list tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// GetTask returns a single task by ID
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// CreateTask inserts a task at the end of the project. The status is taken
// as given; an empty status becomes todo.
func (db *DB) CreateTask(ctx context.Context, projectID string, nt model.NewTask) (*model.Task, error) {
	now := time.Now().UTC()
	t := model.Task{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(nt.Title),
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		AssigneeID:  nt.AssigneeID,
		DueDate:     nt.DueDate,
		ProjectID:   projectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("create task: %w: %w", model.ErrRejected, err)
	}

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, projectID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("project %s: %w: %w", projectID, model.ErrRejected, model.ErrNotFound)
		}

		var maxPos sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE project_id = ?`, projectID).Scan(&maxPos); err != nil {
			return err
		}
		position := 0
		if maxPos.Valid {
			position = int(maxPos.Int64) + 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, description, status, priority, assignee_id,
			                   due_date, project_id, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, nullString(t.Description), t.Status, nullString(string(t.Priority)),
			t.AssigneeID, formatDate(t.DueDate), projectID, position, now, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return &t, nil
}

// UpdateTaskStatus sets a task's status. Unknown statuses and unknown task
// ids are refused with model.ErrRejected.
func (db *DB) UpdateTaskStatus(ctx context.Context, id string, status model.Status) error {
	if !status.Known() {
		return fmt.Errorf("update task %s: %w: %w: %q", id, model.ErrRejected, model.ErrInvalidStatus, status)
	}

	res, err := db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update task %s: %w: %w", id, model.ErrRejected, model.ErrNotFound)
	}
	return nil
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete task %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// Helper functions

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var description, priority, assignee, dueDate *string

	err := s.Scan(
		&t.ID, &t.Title, &description, &t.Status, &priority, &assignee,
		&dueDate, &t.ProjectID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		t.Description = *description
	}
	if priority != nil {
		t.Priority = model.Priority(*priority)
	}
	t.AssigneeID = assignee
	if dueDate != nil {
		if parsed, err := time.Parse(time.RFC3339, *dueDate); err == nil {
			t.DueDate = &parsed
		}
	}

	return &t, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
