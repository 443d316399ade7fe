package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies registry errors so handlers can map them to HTTP statuses
// and callers can branch without string matching.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindState         Kind = "state"
	KindExternal      Kind = "external"
)

// Error is the registry's error type. Message is safe to surface to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validationf reports missing or malformed input.
func Validationf(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

// NotFoundf reports an absent project, company or request.
func NotFoundf(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

// Conflictf reports duplicate or already-terminal operations.
func Conflictf(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

// Authorizationf reports an unverified company or unassigned verifier.
func Authorizationf(format string, args ...interface{}) *Error {
	return newf(KindAuthorization, format, args...)
}

// Statef reports insufficient available or owned balance.
func Statef(format string, args ...interface{}) *Error {
	return newf(KindState, format, args...)
}

// Externalf reports settlement-reference or external-dependency failures.
func Externalf(format string, args ...interface{}) *Error {
	return newf(KindExternal, format, args...)
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" when err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsState(err error) bool         { return KindOf(err) == KindState }
func IsExternal(err error) bool      { return KindOf(err) == KindExternal }

// HTTPStatus maps an error to the status code handlers should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindState:
		return http.StatusUnprocessableEntity
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
