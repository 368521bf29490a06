package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures; handlers map each kind to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the typed error returned by every service operation.
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

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation reports missing or malformed input.
func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, format, args...)
}

// Unauthenticated reports a missing or invalid credential.
func Unauthenticated(format string, args ...interface{}) error {
	return newError(KindAuthentication, format, args...)
}

// Forbidden reports a role or ownership mismatch.
func Forbidden(format string, args ...interface{}) error {
	return newError(KindAuthorization, format, args...)
}

// NotFound reports a missing entity.
func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, format, args...)
}

// Conflict reports a request that clashes with current state.
func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, format, args...)
}

// Internal wraps an unexpected storage or hashing failure.
func Internal(err error, format string, args ...interface{}) error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf returns the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
