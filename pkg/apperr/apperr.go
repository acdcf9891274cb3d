package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an application error for transport mapping.
type Kind string

const (
	KindBadRequest Kind = "bad_request"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

// Error is the application error type shared across transports. It keeps
// a category, a user-facing message, optional details, and the wrapped
// cause for errors.Is/As.
type Error struct {
	kind    Kind
	message string
	details map[string]any
	cause   error
}

// Option mutates an Error during construction.
type Option func(*Error)

// WithCause wraps an underlying error.
func WithCause(err error) Option {
	return func(e *Error) {
		e.cause = err
	}
}

// WithDetail attaches a named detail value.
func WithDetail(key string, value any) Option {
	return func(e *Error) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

// New builds an Error of the given kind.
func New(kind Kind, message string, opts ...Option) *Error {
	if message == "" {
		message = string(kind)
	}
	e := &Error{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap exposes the cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the error category.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

// Message returns the user-facing message without the cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns optional metadata attached to the error.
func (e *Error) Details() map[string]any {
	if e == nil {
		return nil
	}
	return e.details
}

// StatusCode maps the kind onto an HTTP status.
func (e *Error) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps the kind onto a gRPC status code.
func (e *Error) GRPCCode() codes.Code {
	if e == nil {
		return codes.Internal
	}
	switch e.kind {
	case KindBadRequest:
		return codes.InvalidArgument
	case KindConflict:
		return codes.AlreadyExists
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// BadRequest builds a bad-request error.
func BadRequest(message string, opts ...Option) *Error {
	return New(KindBadRequest, message, opts...)
}

// Conflict builds a conflict error.
func Conflict(message string, opts ...Option) *Error {
	return New(KindConflict, message, opts...)
}

// NotFound builds a not-found error.
func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

// Internal builds an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(KindInternal, message, opts...)
}

// From coerces any error into an *Error, wrapping unknown values as
// internal errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", WithCause(err))
}
