package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the application.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrConflict     = errors.New("resource already exists")
	ErrUpstream     = errors.New("upstream service error")
	ErrInternal     = errors.New("internal server error")
)

// Error pairs a sentinel kind with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error   { return newError(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error     { return newError(ErrNotFound, format, args...) }
func Unauthorized(format string, args ...any) error { return newError(ErrUnauthorized, format, args...) }
func Conflict(format string, args ...any) error     { return newError(ErrConflict, format, args...) }
func Upstream(format string, args ...any) error     { return newError(ErrUpstream, format, args...) }
func Internal(format string, args ...any) error     { return newError(ErrInternal, format, args...) }

// PublicMessage returns the client-facing text of err and whether err is a
// classified domain error. Unclassified errors must not leak to clients.
func PublicMessage(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
