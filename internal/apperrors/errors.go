package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrMaxDepthExceeded indicates a category would be nested below the third level.
var ErrMaxDepthExceeded = errors.New("maximum category depth exceeded")

// ErrInvalidStatus indicates an operation is not allowed in the quotation's current status.
var ErrInvalidStatus = errors.New("operation not allowed in current status")

// ErrOverPayment indicates a payment would push the amount received above the quotation total.
var ErrOverPayment = errors.New("payment exceeds outstanding amount")

// ErrInvariantViolation indicates stored state disagrees with what it is derived from.
var ErrInvariantViolation = errors.New("invariant violation")

// Error attaches a human readable detail to one of the sentinel errors above.
type Error struct {
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns kind with a formatted detail message.
func Wrap(kind error, format string, args ...any) error {
	return &Error{Err: kind, Details: fmt.Sprintf(format, args...)}
}

// FieldError describes one failed input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Message != "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", f.Field, f.Tag))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Tag: "invalid", Message: message}}}
}
