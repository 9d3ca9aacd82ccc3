package domain

import (
	"fmt"
	"slices"
	"time"
)

// UpdateTaskParams is a field-mask update of a task.
// Only fields named in UpdateMask are applied; the rest are ignored.
type UpdateTaskParams struct {
	TaskID      string
	UpdateMask  []string
	Name        *string
	Details     *string
	DueDate     *time.Time
	IsCompleted *bool
	// Location is the calendar for the "not before today" due date check;
	// nil uses the service default.
	Location *time.Location
}

// Valid fields for UpdateTaskParams.
var updateTaskValidFields = map[string]struct{}{
	FieldName:        {},
	FieldDetails:     {},
	FieldDueDate:     {},
	FieldIsCompleted: {},
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateTaskParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))

	// Check for unknown fields
	for _, field := range p.UpdateMask {
		if _, ok := updateTaskValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	// Required field checks (cannot be nil when in mask)
	if maskSet[FieldName] && p.Name == nil {
		return ErrNameRequired
	}
	if maskSet[FieldDueDate] && (p.DueDate == nil || p.DueDate.IsZero()) {
		return ErrDueDateRequired
	}
	if maskSet[FieldIsCompleted] && p.IsCompleted == nil {
		return ErrCompletionRequired
	}

	return nil
}

// Has reports whether field is named in the update mask.
func (p UpdateTaskParams) Has(field string) bool {
	return slices.Contains(p.UpdateMask, field)
}
