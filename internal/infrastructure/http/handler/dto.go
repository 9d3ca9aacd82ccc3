package handler

import (
	"time"

	"github.com/rezkam/taskly/internal/domain"
	"github.com/rezkam/taskly/internal/ptr"
	"github.com/rezkam/taskly/internal/taskquery"
)

// TaskDTO is the JSON representation of a task.
type TaskDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Details       *string    `json:"details,omitempty"`
	DueDate       time.Time  `json:"due_date"`
	IsCompleted   bool       `json:"is_completed"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	Status        string     `json:"status"`
	CreatedDate   time.Time  `json:"created_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task TaskDTO `json:"task"`
}

// ListTasksResponse is one page of tasks.
type ListTasksResponse struct {
	Tasks         []TaskDTO `json:"tasks"`
	TotalCount    int       `json:"total_count"`
	NextPageToken *string   `json:"next_page_token,omitempty"`
}

// StatsDTO is the JSON representation of domain.TaskStats.
type StatsDTO struct {
	TotalTasks           int     `json:"total_tasks"`
	CompletedTasks       int     `json:"completed_tasks"`
	PendingTasks         int     `json:"pending_tasks"`
	OverdueTasks         int     `json:"overdue_tasks"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// StatsResponse wraps the stats.
type StatsResponse struct {
	Stats StatsDTO `json:"stats"`
}

// CreateTaskRequest is the body of POST /v1/tasks.
type CreateTaskRequest struct {
	Name    string     `json:"name"`
	Details *string    `json:"details"`
	DueDate *time.Time `json:"due_date"`
}

// UpdateTaskRequest is the body of PATCH /v1/tasks/{task_id}.
type UpdateTaskRequest struct {
	Task struct {
		Name        *string    `json:"name"`
		Details     *string    `json:"details"`
		DueDate     *time.Time `json:"due_date"`
		IsCompleted *bool      `json:"is_completed"`
	} `json:"task"`
	UpdateMask []string `json:"update_mask"`
}

// MapTaskToDTO converts a task, deriving its status at now.
func MapTaskToDTO(t *domain.Task, now time.Time) TaskDTO {
	return TaskDTO{
		ID:            t.ID,
		Name:          t.Name,
		Details:       ptr.NonZero(t.Details),
		DueDate:       t.DueDate.UTC(),
		IsCompleted:   t.IsCompleted,
		CompletedDate: t.CompletedAt,
		Status:        string(taskquery.Status(*t, now)),
		CreatedDate:   t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

// MapTasksToDTO converts a slice of tasks. The result is never nil.
func MapTasksToDTO(tasks []domain.Task, now time.Time) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i := range tasks {
		out[i] = MapTaskToDTO(&tasks[i], now)
	}
	return out
}

// MapStatsToDTO converts domain.TaskStats.
func MapStatsToDTO(s domain.TaskStats) StatsDTO {
	return StatsDTO{
		TotalTasks:           s.TotalTasks,
		CompletedTasks:       s.CompletedTasks,
		PendingTasks:         s.PendingTasks,
		OverdueTasks:         s.OverdueTasks,
		CompletionPercentage: s.CompletionPercentage,
	}
}
