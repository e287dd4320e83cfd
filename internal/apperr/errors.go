// Package apperr defines the error kinds returned by the repositories. Every
// error carries an ordered list of user-facing messages.
package apperr

import (
	"errors"
	"net/http"

	"github.com/ayush/spot-finder/backend/internal/validation"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindConflict        Kind = "CONFLICT"
	KindPersistence     Kind = "PERSISTENCE"
)

// Error is an application error. Err is kept for logging and errors.Is but
// never shown to callers.
type Error struct {
	Kind     Kind
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	msg := validation.Errors(e.Messages).Error()
	if e.Err != nil {
		return string(e.Kind) + ": " + msg + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation wraps validation messages. A non-validation error is passed
// through unchanged, and nil stays nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	var list validation.Errors
	if !errors.As(err, &list) {
		return err
	}
	return &Error{Kind: KindValidation, Messages: list}
}

// NotFound creates a single-message not-found error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Messages: []string{msg}}
}

// Unauthenticated creates a single-message error for failed credentials.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Messages: []string{msg}}
}

// Forbidden creates a single-message authorization error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Messages: []string{msg}}
}

// Conflict creates a single-message conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Messages: []string{msg}}
}

// Persistence hides a store failure behind a generic message.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Messages: []string{msg}, Err: err}
}

// KindOf returns the kind of err, or KindPersistence for unknown errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var list validation.Errors
	if errors.As(err, &list) {
		return KindValidation
	}
	return KindPersistence
}

// Is reports whether err is an application error of kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Messages returns the user-facing messages for err. Unknown errors are
// reported generically.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Messages
	}
	var list validation.Errors
	if errors.As(err, &list) {
		return list
	}
	return []string{"Internal server error"}
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnauthorized:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
