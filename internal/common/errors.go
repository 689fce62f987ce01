// Package common defines shared constants and sentinel errors used across
// the client and server layers of cribfeed. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Taxonomy of recoverable failures surfaced by the core.
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("invalid email or password")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrConcurrency    = errors.New("concurrent operation rejected")
	ErrTimeout        = errors.New("backend timeout")

	// ErrRejected means the backend denied an optimistic mutation.
	ErrRejected = errors.New("rejected by backend")

	// Derived errors.
	ErrAccountExists = fmt.Errorf("%w: account already exists", ErrConflict)
	ErrInProgress    = fmt.Errorf("%w: operation in progress", ErrConcurrency)

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports malformed input. Fields lists every missing or
// invalid input field so forms can highlight all of them at once.
type ValidationError struct {
	Fields []string
	Reason string
}

// NewValidationError builds a ValidationError for the given fields.
func NewValidationError(reason string, fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: reason}
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrValidation.Error())
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	if len(e.Fields) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(e.Fields, ", "))
		sb.WriteString("]")
	}
	return sb.String()
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
