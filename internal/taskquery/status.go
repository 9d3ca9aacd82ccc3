// Package taskquery classifies tasks and answers list queries over an
// in-memory slice of tasks: status derivation, calendar buckets, text search,
// ordering and summary statistics.
//
// Every function is pure. The current time is always passed in, and calendar
// boundaries are computed in now's location, so callers decide which timezone
// "today" means. Nothing here mutates its input.
package taskquery

import (
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// Status derives the lifecycle state of a task at now.
// A task due exactly at now is still pending.
func Status(t domain.Task, now time.Time) domain.TaskStatus {
	switch {
	case t.IsCompleted:
		return domain.TaskStatusCompleted
	case t.DueDate.Before(now):
		return domain.TaskStatusOverdue
	default:
		return domain.TaskStatusPending
	}
}

// FilterByStatus keeps tasks whose derived status equals status.
// A nil status keeps everything.
func FilterByStatus(tasks []domain.Task, status *domain.TaskStatus, now time.Time) []domain.Task {
	if status == nil {
		return clone(tasks)
	}
	return filter(tasks, func(t domain.Task) bool {
		return Status(t, now) == *status
	})
}

// Stats summarizes tasks at now in a single pass.
func Stats(tasks []domain.Task, now time.Time) domain.TaskStats {
	var stats domain.TaskStats
	stats.TotalTasks = len(tasks)

	for _, t := range tasks {
		switch Status(t, now) {
		case domain.TaskStatusCompleted:
			stats.CompletedTasks++
		case domain.TaskStatusOverdue:
			stats.OverdueTasks++
		default:
			stats.PendingTasks++
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionPercentage = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}
	return stats
}

func filter(tasks []domain.Task, keep func(domain.Task) bool) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func clone(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	copy(out, tasks)
	return out
}
