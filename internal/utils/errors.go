package utils

import (
	"errors"
	"fmt"
)

// ErrArtifactMissing indicates the model artifact file could not be found.
var ErrArtifactMissing = errors.New("model artifact missing")

// ErrArtifactMalformed indicates the model artifact was loaded but does not
// match the expected schema.
var ErrArtifactMalformed = errors.New("model artifact malformed")

// ValidationError represents an error occurring during request validation.
type ValidationError struct {
	Message string
}

// Error returns the error message string.
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError with a specific message.
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// NewValidationErrorf creates a new ValidationError with a formatted message.
func NewValidationErrorf(format string, args ...interface{}) error {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
	}
}

// ModelUnavailableError is returned when a required sub-model is absent from
// an otherwise loaded artifact. The single request fails; the process stays up.
type ModelUnavailableError struct {
	Model string
}

// Error returns the error message string.
func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %s", e.Model)
}

// NewModelUnavailableError creates a ModelUnavailableError for the named sub-model.
func NewModelUnavailableError(model string) error {
	return &ModelUnavailableError{Model: model}
}

// IsModelUnavailable reports whether err is a ModelUnavailableError.
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
