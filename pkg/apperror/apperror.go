// Package apperror provides classified application errors that carry a caller-facing HTTP status and message.
package apperror

import (
	"errors"
	"net/http"
)

// InternalMessage is the only message returned to callers for unclassified errors.
const InternalMessage = "Internal Server Error"

// Error is a classified application error. Status and Message are surfaced to the caller verbatim,
// Err keeps the underlying cause for logging and errors.Is matching.
type Error struct {
	Status  int
	Message string
	Err     error
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

// New creates a classified error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap creates a classified error that keeps cause as its underlying error.
func Wrap(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Err: cause}
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Classify returns the status and message to send for err.
// ok is false for unclassified errors, which always map to 500 and InternalMessage.
func Classify(err error) (status int, message string, ok bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message, true
	}
	return http.StatusInternalServerError, InternalMessage, false
}
