package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed queries. These signal a defect in the
// upstream classifier or parser; ordinary "cannot answer" outcomes are
// answer text, never errors.
var (
	ErrInvalidQuery        = errors.New("invalid query")
	ErrUnknownQuestionType = fmt.Errorf("%w: unknown question type", ErrInvalidQuery)
	ErrMissingEntity       = fmt.Errorf("%w: missing entity", ErrInvalidQuery)
	ErrInvalidYear         = fmt.Errorf("%w: invalid year", ErrInvalidQuery)
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
