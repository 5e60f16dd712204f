package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a todo id does not exist or is hidden by
// the requested visibility scope.
var ErrNotFound = errors.New("todo not found")

// ValidationError identifies the offending field of a malformed input.
// Validation runs fully before any mutation is applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps an underlying persistence failure. The core never
// retries these; callers surface them as internal failures.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
