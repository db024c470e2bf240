package types

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/fastline/internal/validation"
)

// ErrInvalidInput is the error kind for input rejected before any mutation.
var ErrInvalidInput = errors.New("invalid input")

// InputError carries the offending field. It matches ErrInvalidInput with errors.Is.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// fromValidation converts the first collected validation error, if any.
func fromValidation(c *validation.Collector) error {
	first := c.First()
	if first == nil {
		return nil
	}
	return &InputError{Field: first.Field, Message: first.Message}
}

// Invalid builds an InputError for callers outside this package.
func Invalid(field, message string) error {
	return &InputError{Field: field, Message: message}
}
