package domain

import "errors"

// Domain errors returned by services and repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrTaskNotFound indicates the task does not exist or is not owned by the caller.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrUnauthorized indicates the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a resource with the same identity is already stored.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidAPIKeyFormat indicates an API key that does not have the expected parts.
	ErrInvalidAPIKeyFormat = errors.New("invalid API key format")
)

// Validation errors.
var (
	ErrNameRequired       = errors.New("name is required")
	ErrNameTooShort       = errors.New("name must be at least 3 characters")
	ErrNameTooLong        = errors.New("name must be 255 characters or less")
	ErrDetailsTooLong     = errors.New("details must be 4096 characters or less")
	ErrDueDateRequired    = errors.New("due date is required")
	ErrDueDateInPast      = errors.New("due date cannot be before today")
	ErrCompletionRequired = errors.New("is_completed requires a value")
	ErrEmptyUpdateMask    = errors.New("update mask cannot be empty")
	ErrUnknownField       = errors.New("unknown field in update mask")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrInvalidDateRange   = errors.New("custom range start must not be after end")

	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidDateFilter = errors.New("invalid date filter")
	ErrInvalidSortOption = errors.New("invalid sort option")
)
