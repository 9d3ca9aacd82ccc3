package response

import (
	"errors"
	"net/http"

	"github.com/rezkam/taskly/internal/domain"
)

// validationIssues maps validation errors to the request field they concern.
var validationIssues = []struct {
	err   error
	field string
	issue string
}{
	{domain.ErrNameRequired, "name", "required field missing"},
	{domain.ErrNameTooShort, "name", "must be at least 3 characters"},
	{domain.ErrNameTooLong, "name", "must be 255 characters or less"},
	{domain.ErrDetailsTooLong, "details", "must be 4096 characters or less"},
	{domain.ErrDueDateRequired, "due_date", "required field missing"},
	{domain.ErrDueDateInPast, "due_date", "cannot be before today"},
	{domain.ErrCompletionRequired, "is_completed", "required field missing"},
	{domain.ErrEmptyUpdateMask, "update_mask", "cannot be empty"},
	{domain.ErrUnknownField, "update_mask", "contains an unknown field"},
	{domain.ErrInvalidPageSize, "page_size", "must be positive"},
	{domain.ErrInvalidTimezone, "timezone", "unknown IANA time zone"},
	{domain.ErrInvalidDateRange, "start", "must not be after end"},
	{domain.ErrInvalidTaskStatus, "status", "must be one of PENDING, OVERDUE, COMPLETED"},
	{domain.ErrInvalidDateFilter, "date_filter", "must be one of ALL, TODAY, THIS_WEEK, THIS_MONTH, OVERDUE, CUSTOM_RANGE"},
	{domain.ErrInvalidSortOption, "sort", "must be one of DUE_DATE_ASC, DUE_DATE_DESC, NAME_ASC, NAME_DESC, CREATED_DATE_ASC, CREATED_DATE_DESC"},
	{domain.ErrInvalidID, "id", "invalid ID format"},
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, v := range validationIssues {
		if errors.Is(err, v.err) {
			ValidationError(w, v.field, v.issue)
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "invalid or missing credentials")
	case errors.Is(err, domain.ErrAlreadyExists):
		Conflict(w, "resource already exists")
	default:
		InternalError(w, r, err)
	}
}
