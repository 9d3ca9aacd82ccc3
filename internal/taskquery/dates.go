package taskquery

import (
	"time"

	"github.com/rezkam/taskly/internal/domain"
)

// StartOfDay returns local midnight of now's calendar day.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// StartOfWeek returns local midnight of the Sunday starting now's week.
func StartOfWeek(now time.Time) time.Time {
	day := StartOfDay(now)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns local midnight of the first day of now's month.
func StartOfMonth(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}

// DateRange returns the half-open [start, end) window for the calendar
// buckets TODAY, THIS_WEEK and THIS_MONTH. ok is false for other filters.
// Ends are computed with AddDate so days stay calendar days across DST changes.
func DateRange(f domain.DateFilter, now time.Time) (start, end time.Time, ok bool) {
	switch f {
	case domain.DateFilterToday:
		start = StartOfDay(now)
		return start, start.AddDate(0, 0, 1), true
	case domain.DateFilterThisWeek:
		start = StartOfWeek(now)
		return start, start.AddDate(0, 0, 7), true
	case domain.DateFilterThisMonth:
		start = StartOfMonth(now)
		return start, start.AddDate(0, 1, 0), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// FilterByDate keeps tasks whose due date falls in the bucket selected by f.
//
// OVERDUE means not completed and due before today's local midnight, which is
// stricter than the OVERDUE status: a task due earlier today is OVERDUE by
// status but not in this bucket. CUSTOM_RANGE is inclusive on both ends and
// keeps everything unless both bounds are set. ALL, the empty filter and
// unknown filters keep everything.
func FilterByDate(tasks []domain.Task, f domain.DateFilter, now time.Time, customStart, customEnd *time.Time) []domain.Task {
	if start, end, ok := DateRange(f, now); ok {
		return filter(tasks, func(t domain.Task) bool {
			return !t.DueDate.Before(start) && t.DueDate.Before(end)
		})
	}

	switch f {
	case domain.DateFilterOverdue:
		midnight := StartOfDay(now)
		return filter(tasks, func(t domain.Task) bool {
			return !t.IsCompleted && t.DueDate.Before(midnight)
		})
	case domain.DateFilterCustomRange:
		if customStart == nil || customEnd == nil {
			return clone(tasks)
		}
		start, end := *customStart, *customEnd
		return filter(tasks, func(t domain.Task) bool {
			return !t.DueDate.Before(start) && !t.DueDate.After(end)
		})
	default:
		return clone(tasks)
	}
}
