// Package apperror carries the error taxonomy shared by services and the HTTP layer.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindConflict
	KindTooManyRequests
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindNotFound:        "not_found",
	KindBadRequest:      "bad_request",
	KindUnauthorized:    "unauthorized",
	KindForbidden:       "forbidden",
	KindConflict:        "conflict",
	KindTooManyRequests: "too_many_requests",
	KindUnavailable:     "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Messages used for store failures surfaced to clients
const (
	MsgUnavailable      = "The database service is unavailable. Please try again later."
	MsgInvalidReference = "The reference ID is invalid or does not exist."
	MsgInternal         = "There is a problem on the server side."
)

// Error is a classified application error
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

// Status returns the HTTP status code for the error kind
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) *Error        { return newError(KindNotFound, msg) }
func BadRequest(msg string) *Error      { return newError(KindBadRequest, msg) }
func Unauthorized(msg string) *Error    { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) *Error       { return newError(KindForbidden, msg) }
func Conflict(msg string) *Error        { return newError(KindConflict, msg) }
func TooManyRequests(msg string) *Error { return newError(KindTooManyRequests, msg) }

// Unavailable wraps a store or dependency failure
func Unavailable(err error) *Error {
	return &Error{Kind: KindUnavailable, Message: MsgUnavailable, Err: err}
}

// Internal wraps an unexpected failure
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// InvalidTransition reports an order status change outside the allowed table
func InvalidTransition(from, to string) *Error {
	return BadRequest(fmt.Sprintf("Cannot change status from '%s' to '%s'", from, to))
}

// Is reports whether err is an application error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// From classifies any error. Application errors pass through unchanged.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Message: "Resource not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Error{Kind: KindConflict, Message: "Resource already exists", Err: err}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return &Error{Kind: KindBadRequest, Message: MsgInvalidReference, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &Error{Kind: KindConflict, Message: "Resource already exists", Err: err}
		case "23503":
			return &Error{Kind: KindBadRequest, Message: MsgInvalidReference, Err: err}
		case "23514", "22001", "22003":
			return &Error{Kind: KindBadRequest, Message: "The request violates a data constraint.", Err: err}
		}
	}

	return Unavailable(err)
}

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
