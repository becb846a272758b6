package types

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers test with errors.Is; every error returned by the
// maintenance services wraps exactly one of the first three.
var (
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict with an active record")
	ErrNotFound    = errors.New("not found")
	ErrConsistency = errors.New("custom interval does not match template schema")
)

// Store lifecycle errors.
var (
	ErrStoreClosed   = errors.New("store is closed")
	ErrAlreadyOpen   = errors.New("store is already open")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidFilter = errors.New("invalid candidate filter")
)

// FieldError reports a custom interval field that does not agree with the
// template schema. It matches both ErrConsistency and ErrValidation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("custom interval: %s", e.Reason)
	}
	return fmt.Sprintf("custom interval field %q: %s", e.Field, e.Reason)
}

// Unwrap exposes both the consistency and validation sentinels.
func (e *FieldError) Unwrap() []error {
	return []error{ErrConsistency, ErrValidation}
}

// Validationf returns an error wrapping ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound with a formatted reason.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf returns an error wrapping ErrConflict with a formatted reason.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
