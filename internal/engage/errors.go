// Package engage holds the shared error taxonomy for the engagement actors.
//
// Actors never panic across their boundary and never retry internally. Every
// failure is reported as an *Error carrying an HTTP-style status class so the
// transport layer can map it without inspecting error strings.
package engage

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the engagement actors.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUnsupported  = "unsupported"
	CodeStoreFailure = "store_failure"
)

// Error is the structured error returned by every actor operation.
type Error struct {
	// Status is the HTTP-style status class (400, 404, 405, 409, 500).
	Status int
	// Code is a stable machine-readable identifier.
	Code string
	// Message is a human-readable description.
	Message string
	// Snapshot carries the current unchanged state on conflict responses,
	// so callers can reconcile without a follow-up read.
	Snapshot any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Input reports malformed or missing input. No state was changed.
func Input(format string, args ...any) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// MissingID reports an absent required identifier.
func MissingID(name string) *Error {
	return &Error{
		Status:  http.StatusNotFound,
		Code:    CodeNotFound,
		Message: name + " is required",
	}
}

// Conflict reports a duplicate positive interaction. The attached snapshot is
// the current, unchanged state.
func Conflict(message string, snapshot any) *Error {
	return &Error{
		Status:   http.StatusConflict,
		Code:     CodeConflict,
		Message:  message,
		Snapshot: snapshot,
	}
}

// Unsupported reports an operation the actor does not implement.
func Unsupported(message string) *Error {
	return &Error{
		Status:  http.StatusMethodNotAllowed,
		Code:    CodeUnsupported,
		Message: message,
	}
}

// Store wraps a persistence failure. The operation is fatal for the caller;
// no partial write is assumed to have landed.
func Store(op string, err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeStoreFailure,
		Message: op,
		cause:   err,
	}
}

// AsError extracts an *Error from err, or nil if err is not one.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// StatusOf returns the HTTP status class for err, defaulting to 500 for
// errors outside the taxonomy.
func StatusOf(err error) int {
	if e := AsError(err); e != nil {
		return e.Status
	}
	return http.StatusInternalServerError
}
