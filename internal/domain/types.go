package domain

// TaskStatus is the derived lifecycle state of a task. It is never stored;
// it is computed from the completion flag, the due date and the current time.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusOverdue   TaskStatus = "OVERDUE"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// DateFilter selects a calendar bucket relative to the current time.
type DateFilter string

const (
	DateFilterAll         DateFilter = "ALL"
	DateFilterToday       DateFilter = "TODAY"
	DateFilterThisWeek    DateFilter = "THIS_WEEK"
	DateFilterThisMonth   DateFilter = "THIS_MONTH"
	DateFilterOverdue     DateFilter = "OVERDUE"
	DateFilterCustomRange DateFilter = "CUSTOM_RANGE"
)

// SortOption orders a task list.
type SortOption string

const (
	SortDueDateAsc      SortOption = "DUE_DATE_ASC"
	SortDueDateDesc     SortOption = "DUE_DATE_DESC"
	SortNameAsc         SortOption = "NAME_ASC"
	SortNameDesc        SortOption = "NAME_DESC"
	SortCreatedDateAsc  SortOption = "CREATED_DATE_ASC"
	SortCreatedDateDesc SortOption = "CREATED_DATE_DESC"
)

// Default filter values.
const (
	DefaultDateFilter = DateFilterAll
	DefaultSortOption = SortDueDateAsc
)

// Field names accepted in UpdateTaskParams.UpdateMask.
const (
	FieldName        = "name"
	FieldDetails     = "details"
	FieldDueDate     = "due_date"
	FieldIsCompleted = "is_completed"
)

// Length limits for task fields, counted in runes.
const (
	MinNameLength  = 3
	MaxNameLength  = 255
	MaxDetailsSize = 4096
)
