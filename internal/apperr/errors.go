// Package apperr defines the error kinds shared by services, handlers and the API client.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel kinds. Callers match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrNetwork           = errors.New("network error")
)

// Error wraps a sentinel kind with human-readable details.
type Error struct {
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports a missing or invalid field.
func Validation(field, msg string) error {
	if field == "" {
		return &Error{Err: ErrValidation, Details: msg}
	}
	return &Error{Err: ErrValidation, Details: field + " " + msg}
}

// Transition reports a state machine violation, e.g. completing a completed sale.
func Transition(entity, from, action string) error {
	return &Error{
		Err:     ErrInvalidTransition,
		Details: fmt.Sprintf("cannot %s %s in status %s", action, entity, from),
	}
}

// NotFound reports a missing entity.
func NotFound(entity string) error {
	return &Error{Err: ErrNotFound, Details: entity + " not found"}
}

func Unauthorized(msg string) error {
	return &Error{Err: ErrUnauthorized, Details: msg}
}

func Forbidden(msg string) error {
	return &Error{Err: ErrForbidden, Details: msg}
}

func Conflict(msg string) error {
	return &Error{Err: ErrConflict, Details: msg}
}

// Network reports an unreachable collaborator or an unexpected response status.
func Network(msg string, cause error) error {
	if cause != nil {
		return &Error{Err: ErrNetwork, Details: fmt.Sprintf("%s: %v", msg, cause)}
	}
	return &Error{Err: ErrNetwork, Details: msg}
}

// FromDB maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else.
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(entity)
	}
	return fmt.Errorf("database error: %w", err)
}
