package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind sentinels. Every AppError wraps exactly one of them so callers can
// branch with errors.Is regardless of the message or details.
var (
	ErrNotFound          = stderrors.New("not found")
	ErrForbidden         = stderrors.New("forbidden")
	ErrInvalidTransition = stderrors.New("invalid transition")
	ErrConflict          = stderrors.New("conflict")
	ErrValidation        = stderrors.New("validation failed")
	ErrUnauthorized      = stderrors.New("unauthorized")
	ErrInternal          = stderrors.New("internal error")
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Kind       error                  `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the kind sentinel to errors.Is.
func (e *AppError) Unwrap() error {
	return e.Kind
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
		Kind:       kindForStatus(statusCode),
	}
}

// WithDetails returns a copy carrying the given details; package-level
// error values are never mutated.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

// WithMessage returns a copy with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := e.WithDetails(nil)
	cp.Message = message
	return cp
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnprocessableEntity:
		return ErrInvalidTransition
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return ErrInternal
	}
}

// NotFound - unknown id of the given resource
func NotFound(resource string, id int64) *AppError {
	return ErrResourceNotFound.WithDetails(map[string]interface{}{
		"resource": resource,
		"id":       id,
	}).WithMessage(fmt.Sprintf("%s %d not found", resource, id))
}

// Forbidden - authorization failure for an operation on a record
func Forbidden(operation string, details map[string]interface{}) *AppError {
	d := map[string]interface{}{"operation": operation}
	for k, v := range details {
		d[k] = v
	}
	return ErrAccessDenied.WithDetails(d)
}

// InvalidTransition - the from/to pair is not in the transition table
func InvalidTransition(complaintID int64, from, to string) *AppError {
	return ErrTransitionNotAllowed.WithDetails(map[string]interface{}{
		"complaint_id": complaintID,
		"from":         from,
		"to":           to,
		"operation":    "transition",
	}).WithMessage(fmt.Sprintf("transition %s -> %s is not allowed", from, to))
}

// Conflict - optimistic concurrency collision
func Conflict(resource string, id int64, operation string) *AppError {
	return ErrConcurrentUpdate.WithDetails(map[string]interface{}{
		"resource":  resource,
		"id":        id,
		"operation": operation,
		"retryable": true,
	})
}

// Validation - malformed input or unmet precondition
func Validation(operation, message string, details map[string]interface{}) *AppError {
	d := map[string]interface{}{"operation": operation}
	for k, v := range details {
		d[k] = v
	}
	return ErrInvalidInput.WithDetails(d).WithMessage(message)
}

// IsRetryable reports whether the caller may retry the whole read-modify-write cycle.
func IsRetryable(err error) bool {
	return stderrors.Is(err, ErrConflict)
}

// Is, As re-exported so callers do not need two errors imports.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target interface{}) bool { return stderrors.As(err, target) }
