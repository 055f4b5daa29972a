package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindUnsupportedType Kind = "unsupported_type"
	KindTooLarge        Kind = "too_large"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindUnavailable     Kind = "unavailable"
)

// Error is the failure type shared by services, the HTTP surface and the
// admin client. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	ErrTooLarge        = &Error{Kind: KindTooLarge}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrUnavailable     = &Error{Kind: KindUnavailable}
)

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func UnsupportedType(msg string) error {
	return &Error{Kind: KindUnsupportedType, Message: msg}
}

func TooLarge(msg string) error {
	return &Error{Kind: KindTooLarge, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Unavailable wraps a backend failure. The message is what callers show;
// the cause stays reachable through errors.Unwrap for logging.
func Unavailable(err error, msg string) error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: err}
}

// KindOf reports the kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps a kind onto the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUnsupportedType, KindTooLarge:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTP rebuilds an error from an API response. A known code wins over
// the status, which cannot tell validation from upload policy failures.
func FromHTTP(status int, code Kind, msg string) error {
	switch code {
	case KindValidation, KindConflict, KindNotFound, KindUnsupportedType,
		KindTooLarge, KindUnauthorized, KindForbidden, KindUnavailable:
		return &Error{Kind: code, Message: msg}
	}
	switch {
	case status == http.StatusConflict:
		return Conflict(msg)
	case status == http.StatusNotFound:
		return NotFound(msg)
	case status == http.StatusUnauthorized:
		return Unauthorized(msg)
	case status == http.StatusForbidden:
		return Forbidden(msg)
	case status == http.StatusRequestEntityTooLarge:
		return TooLarge(msg)
	case status >= 400 && status < 500:
		return Validation(msg)
	default:
		return &Error{Kind: KindUnavailable, Message: msg}
	}
}
