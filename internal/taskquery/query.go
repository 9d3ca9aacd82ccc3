package taskquery

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// Search keeps tasks whose name or details contain q, ignoring case.
// An empty query keeps everything.
func Search(tasks []domain.Task, q string) []domain.Task {
	if q == "" {
		return clone(tasks)
	}
	needle := strings.ToLower(q)
	return filter(tasks, func(t domain.Task) bool {
		return strings.Contains(strings.ToLower(t.Name), needle) ||
			strings.Contains(strings.ToLower(t.Details), needle)
	})
}

// Sort returns a new slice ordered by opt. The sort is stable, so tasks with
// equal keys keep their input order. Names compare case-insensitively.
// An empty or unknown option sorts by due date ascending.
func Sort(tasks []domain.Task, opt domain.SortOption) []domain.Task {
	out := clone(tasks)
	slices.SortStableFunc(out, comparator(opt))
	return out
}

func comparator(opt domain.SortOption) func(a, b domain.Task) int {
	switch opt {
	case domain.SortDueDateDesc:
		return func(a, b domain.Task) int { return b.DueDate.Compare(a.DueDate) }
	case domain.SortNameAsc:
		return func(a, b domain.Task) int { return compareNames(a.Name, b.Name) }
	case domain.SortNameDesc:
		return func(a, b domain.Task) int { return compareNames(b.Name, a.Name) }
	case domain.SortCreatedDateAsc:
		return func(a, b domain.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case domain.SortCreatedDateDesc:
		return func(a, b domain.Task) int { return b.CreatedAt.Compare(a.CreatedAt) }
	default:
		return func(a, b domain.Task) int { return a.DueDate.Compare(b.DueDate) }
	}
}

func compareNames(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// Query applies the status filter, then the date bucket, then the sort order.
func Query(tasks []domain.Task, f domain.TaskFilters, now time.Time) []domain.Task {
	out := FilterByStatus(tasks, f.Status, now)
	out = FilterByDate(out, f.EffectiveDateFilter(), now, f.CustomStart, f.CustomEnd)
	return Sort(out, f.EffectiveSortOption())
}

// SearchWithFilters narrows a search to the active filters: status, then date
// bucket, then text match, ordered by the active sort option.
func SearchWithFilters(tasks []domain.Task, q string, f domain.TaskFilters, now time.Time) []domain.Task {
	out := FilterByStatus(tasks, f.Status, now)
	out = FilterByDate(out, f.EffectiveDateFilter(), now, f.CustomStart, f.CustomEnd)
	out = Search(out, q)
	return Sort(out, f.EffectiveSortOption())
}
