package model

import "fmt"

// ValidationError reports missing or malformed input. It is the only error
// that aborts a scheduling run.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Human-readable reasons recorded on exams and unschedulable records
const (
	ReasonInsufficientCapacity = "insufficient room capacity"
)
