package domain

import "time"

// TaskFilters is the view state a task listing is computed from.
// The zero value lists everything ordered by due date ascending.
type TaskFilters struct {
	Status      *TaskStatus
	DateFilter  DateFilter
	CustomStart *time.Time // only used with DateFilterCustomRange
	CustomEnd   *time.Time // only used with DateFilterCustomRange
	SortOption  SortOption
}

// TaskFiltersInput carries unvalidated filter values, typically from query parameters.
type TaskFiltersInput struct {
	Status      string
	DateFilter  string
	CustomStart *time.Time
	CustomEnd   *time.Time
	SortOption  string
}

// NewTaskFilters validates raw filter input.
// Custom bounds are kept only for CUSTOM_RANGE; an inverted range is rejected.
func NewTaskFilters(in TaskFiltersInput) (TaskFilters, error) {
	var f TaskFilters

	if in.Status != "" {
		status, err := NewTaskStatus(in.Status)
		if err != nil {
			return TaskFilters{}, err
		}
		f.Status = &status
	}

	dateFilter, err := NewDateFilter(in.DateFilter)
	if err != nil {
		return TaskFilters{}, err
	}
	f.DateFilter = dateFilter

	sortOption, err := NewSortOption(in.SortOption)
	if err != nil {
		return TaskFilters{}, err
	}
	f.SortOption = sortOption

	if dateFilter == DateFilterCustomRange {
		if in.CustomStart != nil && in.CustomEnd != nil && in.CustomStart.After(*in.CustomEnd) {
			return TaskFilters{}, ErrInvalidDateRange
		}
		f.CustomStart = in.CustomStart
		f.CustomEnd = in.CustomEnd
	}

	return f, nil
}

// EffectiveDateFilter returns the date filter, treating the zero value as ALL.
func (f TaskFilters) EffectiveDateFilter() DateFilter {
	if f.DateFilter == "" {
		return DefaultDateFilter
	}
	return f.DateFilter
}

// EffectiveSortOption returns the sort option, treating the zero value as DUE_DATE_ASC.
func (f TaskFilters) EffectiveSortOption() SortOption {
	if f.SortOption == "" {
		return DefaultSortOption
	}
	return f.SortOption
}

// ListTasksParams controls a task listing.
type ListTasksParams struct {
	Filters  TaskFilters
	Query    string         // case-insensitive search over name and details; blank disables
	Location *time.Location // calendar used for date buckets; nil uses the service default
	Offset   int
	Limit    int
}
