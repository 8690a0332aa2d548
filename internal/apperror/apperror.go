// Package apperror defines the error taxonomy shared by every layer.
//
// Repositories and services return *AppError values that wrap one of the
// sentinel errors below. Handlers never inspect messages; they use errors.Is
// against the sentinels to pick an HTTP status.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDependency marks a failed best-effort secondary write. Callers log
	// and swallow it; it never reaches a client.
	ErrDependency = errors.New("dependency failed")
	ErrInternal   = errors.New("internal error")
)

type AppError struct {
	Err     error  // sentinel
	Message string // human-readable, safe to show to clients
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying error, never shown to clients
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// ConflictMessage builds a conflict with a free-form message, for conflicts
// that are not about a duplicate key (full activity, section still in use).
func ConflictMessage(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Dependency wraps the failure of a best-effort secondary operation.
func Dependency(operation string, cause error) *AppError {
	return &AppError{
		Err:     ErrDependency,
		Message: operation + " failed",
		Cause:   cause,
	}
}

// Internal wraps an unexpected store failure. The message is generic; the
// cause is kept for server-side logging only.
func Internal(cause error) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: "an internal error occurred",
		Cause:   cause,
	}
}
