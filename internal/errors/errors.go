// Package errors defines the service error taxonomy shared by the domain
// services and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error class to callers.
type Code string

const (
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeConflict        Code = "CONFLICT"
	CodeTransient       Code = "TRANSIENT"
	CodeInternal        Code = "INTERNAL"
)

// ServiceError is a caller-visible error with a stable code and HTTP status.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a detail key/value and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Unauthorized reports a missing or invalid caller identity.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// Forbidden reports an authenticated caller acting outside its ownership
// boundary. The message must not reveal whether the target exists.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports an absent entity.
func NotFound(entity, id string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, fmt.Sprintf("%s %s not found", entity, id), nil)
}

// InvalidArgument reports a request value outside the allowed set.
func InvalidArgument(message string) *ServiceError {
	return newError(CodeInvalidArgument, http.StatusBadRequest, message, nil)
}

// Conflict reports a state or concurrency conflict.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// Transient reports a datastore or downstream I/O failure that the caller
// may retry.
func Transient(message string, cause error) *ServiceError {
	return newError(CodeTransient, http.StatusServiceUnavailable, message, cause)
}

// Internal reports an unclassified failure.
func Internal(message string, cause error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// GetServiceError returns the ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	svcErr := GetServiceError(err)
	return svcErr != nil && svcErr.Code == code
}
