// Package apperror defines the domain error taxonomy shared by every layer.
//
// ERROR STRATEGY:
// Repositories translate driver errors (sql.ErrNoRows, UNIQUE violations,
// file I/O failures) into these sentinels. Services propagate them. The HTTP
// handlers map them onto status codes. Nobody above the repository layer ever
// inspects a driver error directly.
//
// The original application's policy was to catch storage failures, print them,
// and return null/false/empty. Here every failure is a typed error instead —
// the caller decides what "degrade" means, and tests can assert on the cause
// with errors.Is.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidEnum  = errors.New("invalid enum value")
	ErrStorage      = errors.New("storage failure")
)

// AppError pairs a sentinel with a human-readable message.
//
// errors.Is(err, apperror.ErrNotFound) works because Unwrap returns the
// sentinel — the standard library walks the chain for us.
type AppError struct {
	Err     error  // one of the sentinels above (possibly wrapped)
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
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

// Duplicate reports a unique-key collision (username, email, tag name).
// Uniqueness in this system is case-insensitive, so "Admin" collides
// with "admin".
func Duplicate(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", field, value),
		Field:   field,
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

// Unauthorized covers failed logins and missing/expired sessions.
// Handlers map this to 401. The message stays vague for login failures —
// "invalid credentials" whether the username or the password was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidEnum reports an out-of-range value for a closed enumeration
// (status, priority, severity, role). Out-of-range values must fail —
// never default silently.
func InvalidEnum(kind, value string) *AppError {
	return &AppError{
		Err:     ErrInvalidEnum,
		Message: fmt.Sprintf("invalid %s %q", kind, value),
		Field:   kind,
	}
}

// Storage wraps an I/O or SQL failure with the operation that caused it.
// The root cause stays on the %w chain, so errors.Is(err, ErrStorage)
// holds and the driver error remains reachable for logs.
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrStorage, op, cause),
		Message: fmt.Sprintf("storage failure during %s", op),
	}
}
