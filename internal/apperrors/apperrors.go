// Package apperrors defines the error variant every route failure is reported with.
// The terminal error handler renders it as {message, data} with its HTTP status.
package apperrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindPayloadTooLarge
	KindTooManyRequests
	KindBadRequest
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindBadRequest:
		return "bad_request"
	default:
		return "internal"
	}
}

// Status is the default HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Data    any
	Err     error
}

// FieldError names one rejected request field in a validation response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithData returns a copy of e carrying data in the response body.
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: kind.Status(), Message: message}
}

// Wrap attaches a cause that is logged but never sent to the client.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Status: kind.Status(), Message: message, Err: err}
}

func Validation(message string, data any) *Error {
	return New(KindValidation, message).WithData(data)
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func BadRequest(message string) *Error      { return New(KindBadRequest, message) }

func Internal(err error) *Error {
	return Wrap(KindInternal, "Internal server error.", err)
}

// From returns err as an *Error, wrapping anything else as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
