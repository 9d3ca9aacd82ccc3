package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rezkam/taskly/internal/domain"
)

const (
	insertTaskQuery = `
		INSERT INTO tasks (id, user_id, name, details, due_date, is_completed, completed_date, created_date, updated_at)
		VALUES (:id, :user_id, :name, :details, :due_date, :is_completed, :completed_date, :created_date, :updated_at)`

	selectTaskQuery = `SELECT * FROM tasks WHERE id = ? AND user_id = ?`

	selectUserTasksQuery = `SELECT * FROM tasks WHERE user_id = ?`

	updateTaskQuery = `
		UPDATE tasks
		SET name = :name,
		    details = :details,
		    due_date = :due_date,
		    is_completed = :is_completed,
		    completed_date = :completed_date,
		    updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id`

	deleteTaskQuery = `DELETE FROM tasks WHERE id = ? AND user_id = ?`
)

// CreateTask inserts a new task.
func (s *Store) CreateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if _, err := s.db.NamedExecContext(ctx, insertTaskQuery, taskToRow(t)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrAlreadyExists, t.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.FindTaskByID(ctx, t.UserID, t.ID)
}

// FindTaskByID retrieves one task of a user.
func (s *Store) FindTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	var row taskRow
	if err := s.db.GetContext(ctx, &row, selectTaskQuery, taskID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	t, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTasksByUser returns all tasks of a user.
func (s *Store) FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, selectUserTasksQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// UpdateTask overwrites the mutable columns of a task.
func (s *Store) UpdateTask(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	res, err := s.db.NamedExecContext(ctx, updateTaskQuery, taskToRow(t))
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrTaskNotFound
	}
	return s.FindTaskByID(ctx, t.UserID, t.ID)
}

// DeleteTask removes a task of a user.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	res, err := s.db.ExecContext(ctx, deleteTaskQuery, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
