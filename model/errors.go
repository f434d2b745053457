package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error taxonomy shared by every layer. Callers test for a class of failure
// with errors.Is, the HTTP adapter maps each class onto a status code.
var (
	ErrValidation           = errors.New("validation error")
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidSelfReference = errors.New("invalid self reference")
	ErrUnauthenticated      = errors.New("authentication required")
)

// ValidationError reports malformed input on a single field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
