package models

import (
	"errors"
	"fmt"
)

// ErrDataIntegrity marks errors that indicate a broken invariant rather than
// bad input: money created or destroyed by the pipeline. These must never be
// silently persisted; callers should log them loudly and abort the operation.
var ErrDataIntegrity = errors.New("data integrity violation")

// IntegrityErrorf builds a data-integrity error. errors.Is(err, ErrDataIntegrity)
// distinguishes it from validation errors.
func IntegrityErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataIntegrity, fmt.Sprintf(format, args...))
}

// ValidationError is a caller-fixable input problem, reported before any
// calculation runs. Field names the offending input so the UI can render
// per-field messages.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validationf builds a *ValidationError for the given field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Warning flags suspicious-but-legal input (e.g. a 90% tip) that the UI
// should ask the user to confirm. Warnings never block calculation.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
