package domain

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // IANA names resolve on hosts without a zoneinfo database
	"unicode/utf8"
)

// TaskName is a validated task name value object (3-255 characters after trimming).
type TaskName struct {
	value string
}

// NewTaskName creates a new TaskName, validating the input.
func NewTaskName(s string) (TaskName, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return TaskName{}, ErrNameRequired
	}

	n := utf8.RuneCountInString(s)
	if n < MinNameLength {
		return TaskName{}, ErrNameTooShort
	}
	if n > MaxNameLength {
		return TaskName{}, ErrNameTooLong
	}

	return TaskName{value: s}, nil
}

// String returns the name value.
func (n TaskName) String() string {
	return n.value
}

// NewTaskDetails trims and validates free-form task details. Empty is allowed.
func NewTaskDetails(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDetailsSize {
		return "", ErrDetailsTooLong
	}
	return s, nil
}

// normalizeEnum upper-cases and turns dashes or spaces into underscores so that
// "this-week", "This Week" and "THIS_WEEK" all parse the same.
func normalizeEnum(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	return strings.ToUpper(s)
}

// NewTaskStatus validates and creates a TaskStatus.
func NewTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(normalizeEnum(s))

	switch status {
	case TaskStatusPending, TaskStatusOverdue, TaskStatusCompleted:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidTaskStatus, s)
	}
}

// NewDateFilter validates and creates a DateFilter. Empty input yields the default.
func NewDateFilter(s string) (DateFilter, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultDateFilter, nil
	}

	filter := DateFilter(normalizeEnum(s))

	switch filter {
	case DateFilterAll, DateFilterToday, DateFilterThisWeek, DateFilterThisMonth,
		DateFilterOverdue, DateFilterCustomRange:
		return filter, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDateFilter, s)
	}
}

// NewSortOption validates and creates a SortOption. Empty input yields the default.
func NewSortOption(s string) (SortOption, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultSortOption, nil
	}

	opt := SortOption(normalizeEnum(s))

	switch opt {
	case SortDueDateAsc, SortDueDateDesc, SortNameAsc, SortNameDesc,
		SortCreatedDateAsc, SortCreatedDateDesc:
		return opt, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSortOption, s)
	}
}

// LoadLocation resolves an IANA timezone name. Empty input yields nil so callers
// can fall back to their configured default.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return loc, nil
}
