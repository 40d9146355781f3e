package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")

	// ErrAuthRequired is returned synchronously by store operations that need a
	// signed-in session. Nothing is queued for later.
	ErrAuthRequired = errors.New("sign in required")
)

// APIError is the uniform error shape for backend failures and client-side
// validation. StatusCode is the upstream HTTP status; Body keeps the parsed
// backend payload for callers that want field-level details.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Body       any    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// FromStatus builds an APIError for a non-2xx backend response.
// The wrapped sentinel follows the status class so callers can use errors.Is.
func FromStatus(status int, message string, body any) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	e := &APIError{Message: message, StatusCode: status, Body: body}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Code, e.Err = "VALIDATION_ERROR", ErrInvalidRequest
	case status == http.StatusUnauthorized:
		e.Code, e.Err = "UNAUTHORIZED", ErrUnauthorized
	case status == http.StatusForbidden:
		e.Code, e.Err = "FORBIDDEN", ErrForbidden
	case status == http.StatusNotFound:
		e.Code, e.Err = "NOT_FOUND", ErrNotFound
	case status == http.StatusTooManyRequests:
		e.Code, e.Err = "RATE_LIMITED", ErrRateLimited
	case status >= 500:
		e.Code, e.Err = "UPSTREAM_ERROR", ErrUpstreamError
	default:
		e.Code, e.Err = "REQUEST_FAILED", ErrInvalidRequest
	}
	return e
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// NewForbiddenError creates a 403 error for role failures.
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:       "FORBIDDEN",
		Message:    reason,
		StatusCode: http.StatusForbidden,
		Err:        ErrForbidden,
	}
}

// NewUpstreamError creates a 502 error for transport-level backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewAuthRequiredError wraps ErrAuthRequired for HTTP responses.
func NewAuthRequiredError(action string) *APIError {
	return &APIError{
		Code:       "AUTH_REQUIRED",
		Message:    fmt.Sprintf("please sign in to %s", action),
		StatusCode: http.StatusUnauthorized,
		Err:        ErrAuthRequired,
	}
}
