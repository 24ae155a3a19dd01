// Package apperr defines the error taxonomy shared by the lifecycle engine,
// the authorization gate and the stores. Callers match error kinds with
// errors.Is and map them to HTTP status codes at the handler boundary only.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Every error produced by the core wraps exactly one of these.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
)

// FieldError is a single structured field failure, collected rather than
// returned on first violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind sentinel, a human-readable message and optional
// per-field detail.
type Error struct {
	kind    error
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.kind.Error()
	}
	return e.Message
}

// Is reports whether target is this error's kind, so that
// errors.Is(err, apperr.ErrConflict) works across wrapping.
func (e *Error) Is(target error) bool { return target == e.kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return newError(ErrValidation, format, args...)
}

// ValidationFields builds a validation error from a collected field list.
func ValidationFields(fields []FieldError) *Error {
	return &Error{kind: ErrValidation, Message: "validation failed", Fields: fields}
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func NotAuthenticated(format string, args ...any) *Error {
	return newError(ErrNotAuthenticated, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return newError(ErrInvalidTransition, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

// HTTPStatus maps an error to the status code the API responds with. Unknown
// errors are treated as internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FieldsOf returns the structured field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
