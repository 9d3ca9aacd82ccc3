package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rezkam/taskly/internal/domain"
)

// === Task Repository Implementation ===
// Implements application/task.Repository interface (5 methods)

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+taskColumns,
		uuidToPgtype(id), t.UserID, t.Name, t.Details,
		timeToPgtype(t.DueDate), t.IsCompleted, timePtrToPgtype(t.CompletedAt),
		timeToPgtype(t.CreatedAt), timeToPgtype(t.UpdatedAt),
	)

	created, err := scanTask(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrAlreadyExists, t.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &created, nil
}

// FindTaskByID retrieves one task of a user.
func (s *Store) FindTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// FindTasksByUser returns all tasks of a user.
func (s *Store) FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask overwrites the mutable columns of a task.
func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	id, err := parseTaskID(t.ID)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE tasks
		SET name = $3,
		    details = $4,
		    due_date = $5,
		    is_completed = $6,
		    completed_date = $7,
		    updated_at = $8
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		id, t.UserID, t.Name, t.Details,
		timeToPgtype(t.DueDate), t.IsCompleted, timePtrToPgtype(t.CompletedAt),
		timeToPgtype(t.UpdatedAt),
	)

	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &updated, nil
}

// DeleteTask removes a task of a user.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	id, err := parseTaskID(taskID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
