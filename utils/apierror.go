package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ApiError is the single error type handlers translate into an HTTP response.
type ApiError struct {
	Status  int
	Message string
	Err     error
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ApiError) Unwrap() error { return e.Err }

func NewApiError(status int, format string, args ...any) *ApiError {
	return &ApiError{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *ApiError {
	return NewApiError(http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...any) *ApiError {
	return NewApiError(http.StatusNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *ApiError {
	return NewApiError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *ApiError {
	return NewApiError(http.StatusForbidden, format, args...)
}

func NotAcceptable(format string, args ...any) *ApiError {
	return NewApiError(http.StatusNotAcceptable, format, args...)
}

func Conflict(format string, args ...any) *ApiError {
	return NewApiError(http.StatusConflict, format, args...)
}

// Internal wraps an unexpected failure. The cause is logged, never shown.
func Internal(err error, msg string) *ApiError {
	return &ApiError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// StatusOf returns the HTTP status carried by err, 500 for anything else.
func StatusOf(err error) int {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// IsStatus reports whether err is an ApiError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
