package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
)

// Application error codes. Each maps to one HTTP status in httpserver.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized"
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is an application error carrying a machine code and a message safe to show to callers.
type Error struct {
	Code    string
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the code from err. Sentinel repository errors map to their
// codes; anything else is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return ENOTFOUND
	case errors.Is(err, ErrAlreadyExists):
		return ECONFLICT
	}
	return EINTERNAL
}

// ErrorMessage returns a caller-facing message. Internal details are hidden.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrAlreadyExists):
		return "already exists"
	}
	return internalMessage
}

func Invalid(op, format string, args ...any) error {
	return &Error{Code: EINVALID, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(op, format string, args ...any) error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(op, format string, args ...any) error {
	return &Error{Code: EFORBIDDEN, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, format string, args ...any) error {
	return &Error{Code: ENOTFOUND, Op: op, Message: fmt.Sprintf(format, args...), Err: ErrNotFound}
}

func Conflict(op, format string, args ...any) error {
	return &Error{Code: ECONFLICT, Op: op, Message: fmt.Sprintf(format, args...), Err: ErrAlreadyExists}
}

// Internal wraps err so its details are logged but never returned to callers.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: EINTERNAL, Op: op, Message: internalMessage, Err: err}
}
