package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)

	sentinel *Error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches copies made by WithMessage and WithCause against their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.sentinel != nil && e.sentinel == t)
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:     e.Code,
		Message:  msg,
		Err:      e.Err,
		sentinel: e.root(),
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:     e.Code,
		Message:  e.Message,
		Err:      err,
		sentinel: e.root(),
	}
}

func (e *Error) root() *Error {
	if e.sentinel != nil {
		return e.sentinel
	}
	return e
}

// Sentinel errors.
var (
	ErrBookNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "book not found",
	}

	// ErrBookUnavailable is returned when borrowing a book that already has an open loan.
	ErrBookUnavailable = &Error{
		Code:    http.StatusBadRequest,
		Message: "book is not available",
	}

	// ErrOpenLoanNotFound is returned when no open loan matches a return request.
	ErrOpenLoanNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "no open loan for book and user",
	}

	// ErrBookHasLoans is returned when deleting a book that has loan history.
	ErrBookHasLoans = &Error{
		Code:    http.StatusConflict,
		Message: "book has loan history",
	}

	// ErrAvailabilityManaged is returned when an update tries to change availability directly.
	ErrAvailabilityManaged = &Error{
		Code:    http.StatusConflict,
		Message: "availability is managed by borrow and return",
	}

	// ErrConflict is returned when a concurrent write or a duplicate key aborts an operation.
	ErrConflict = &Error{
		Code:    http.StatusConflict,
		Message: "conflicting write",
	}
)
