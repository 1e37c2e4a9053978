// Package errors carries the API's typed failures. Each Error pairs a stable machine code with
// the HTTP status the response layer writes, so services return them unchanged and handlers never
// map errors themselves.
//
// Run lookups follow the generator lifecycle: a run that is still running answers with
// ErrRunInProgress (409) until its worker records an outcome, and a run whose evolution or
// persistence failed answers with ErrRunFailed (422) for every read that needs its slots.
// ErrQueueUnavailable (503) means the run row was created but could not be handed to a worker,
// and the row has already been marked failed.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure with a client-facing code and status. Err keeps the cause for logs only.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New declares a sentinel.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap keeps cause behind a client-safe message.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss never reaches clients; progress lookups fall back to the run row on it.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrRunInProgress    = New("RUN_IN_PROGRESS", http.StatusConflict, "generator run still in progress")
	ErrRunFailed        = New("RUN_FAILED", http.StatusUnprocessableEntity, "generator run failed")
	ErrQueueUnavailable = New("QUEUE_UNAVAILABLE", http.StatusServiceUnavailable, "generator queue unavailable")
)

// ForRunStatus returns the error a read needing a finished schedule should answer with, or nil
// once the run completed. Unknown statuses are treated as failed.
func ForRunStatus(status string) *Error {
	switch status {
	case "completed":
		return nil
	case "running":
		return ErrRunInProgress
	default:
		return ErrRunFailed
	}
}

// FromError returns the typed error inside err, or ErrInternal wrapping it.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel with a more specific message. An empty message keeps the original.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
