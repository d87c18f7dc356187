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

// ListProjects returns all non-archived projects with their task counts
func (db *DB) ListProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.color, p.archived, p.position,
		       p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM tasks WHERE project_id = p.id) AS task_count
		FROM projects p
		WHERE p.archived = 0
		ORDER BY p.position, p.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows, true)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// GetProject returns a single project by ID
func (db *DB) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, description, color, archived, position, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)

	p, err := scanProject(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

// CreateProject appends a new project
func (db *DB) CreateProject(ctx context.Context, name, color string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create project: %w: name is required", model.ErrRejected)
	}

	p := &model.Project{
		ID:    uuid.New().String(),
		Name:  name,
		Color: color,
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		var maxPos sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM projects`).Scan(&maxPos); err != nil {
			return err
		}
		if maxPos.Valid {
			p.Position = int(maxPos.Int64) + 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, color, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.Name, nullString(color), p.Position, now, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func scanProject(s scanner, withCount bool) (*model.Project, error) {
	var p model.Project
	var archived int
	var description, color *string

	dest := []interface{}{
		&p.ID, &p.Name, &description, &color, &archived, &p.Position,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if withCount {
		dest = append(dest, &p.TaskCount)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	p.Archived = archived == 1
	if description != nil {
		p.Description = *description
	}
	if color != nil {
		p.Color = *color
	}
	return &p, nil
}
