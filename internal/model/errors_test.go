package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	err := &APIError{Code: "TEST_ERROR", Message: "something went wrong"}
	assert.Equal(t, "TEST_ERROR: something went wrong", err.Error())

	wrapped := &APIError{Code: "TEST_ERROR", Message: "something went wrong", Err: errors.New("underlying cause")}
	assert.Equal(t, "TEST_ERROR: something went wrong (underlying cause)", wrapped.Error())
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		code     string
		sentinel error
	}{
		{http.StatusBadRequest, "VALIDATION_ERROR", ErrInvalidRequest},
		{http.StatusUnprocessableEntity, "VALIDATION_ERROR", ErrInvalidRequest},
		{http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized},
		{http.StatusForbidden, "FORBIDDEN", ErrForbidden},
		{http.StatusNotFound, "NOT_FOUND", ErrNotFound},
		{http.StatusTooManyRequests, "RATE_LIMITED", ErrRateLimited},
		{http.StatusServiceUnavailable, "UPSTREAM_ERROR", ErrUpstreamError},
		{http.StatusConflict, "REQUEST_FAILED", ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := FromStatus(tt.status, "", nil)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, http.StatusText(tt.status), err.Message)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	base := NewNotFoundError("product")
	err := fmt.Errorf("loading product page: %w", base)

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "product not found", apiErr.Message)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	err := Validate(&RegisterForm{
		Name:            "Ayesha",
		Email:           "ayesha@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	})

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "ConfirmPassword must match Password")

	assert.NoError(t, Validate(&LoginForm{Email: "a@example.com", Password: "x"}))
}

func TestUserAdmin(t *testing.T) {
	assert.True(t, (&User{Role: "Admin"}).Admin())
	assert.True(t, (&User{IsAdmin: true}).Admin())
	assert.False(t, (&User{Role: "customer"}).Admin())

	var nilUser *User
	assert.False(t, nilUser.Admin())
}
