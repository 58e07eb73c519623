// Package apperror defines the typed error taxonomy shared by all services.
// Business-rule violations (authorization, illegal transitions, overlap,
// optimistic-concurrency loss) are expected outcomes and travel as values of
// *apperror.Error; only infrastructure failures wrap an underlying cause.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates the failure categories callers can branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized // no valid identity
	KindForbidden    // identity known, access denied (incl. self-review, cross-venue)
	KindInvalidState // illegal lifecycle transition
	KindOverlapping  // business-rule conflict with an existing request
	KindConflict     // optimistic-concurrency loss
	KindValidation   // malformed input
	KindStorage      // collaborator (DB/Redis) failure
)

// Error carries a kind plus a stable, human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, only set for KindStorage
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Overlapping(format string, args ...interface{}) *Error {
	return &Error{Kind: KindOverlapping, Message: fmt.Sprintf(format, args...)}
}

// Conflict is the optimistic-concurrency failure. The message deliberately
// tells the caller to refresh and retry — the server never retries for them.
func Conflict() *Error {
	return &Error{Kind: KindConflict, Message: "the request was modified by another user — refresh and retry"}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an infrastructure failure. The original cause is preserved for
// logging but never shown to clients.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "storage operation failed", Err: err}
}

// KindOf extracts the Kind from any error chain; unknown errors report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps each kind to its canonical HTTP response code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindOverlapping:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
