package task

import (
	"context"

	"github.com/rezkam/taskly/internal/domain"
)

// Repository is the document store the service reads and writes tasks through.
// Every lookup is scoped by user ID; a task owned by another user is reported
// as domain.ErrTaskNotFound.
type Repository interface {
	// CreateTask persists a new task and returns the stored copy.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindTaskByID retrieves one task of a user.
	// Returns domain.ErrTaskNotFound if it does not exist.
	FindTaskByID(ctx context.Context, userID, taskID string) (*domain.Task, error)

	// FindTasksByUser returns every task of a user in no particular order.
	FindTasksByUser(ctx context.Context, userID string) ([]domain.Task, error)

	// UpdateTask replaces a stored task.
	// Returns domain.ErrTaskNotFound if it does not exist.
	UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// DeleteTask removes a task.
	// Returns domain.ErrTaskNotFound if it does not exist.
	DeleteTask(ctx context.Context, userID, taskID string) error
}
