package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeExternal, "backend returned 503", baseErr)

	assert.Equal(t, ErrorTypeExternal, domainErr.Type)
	assert.Equal(t, "backend returned 503", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeUnavailable,
				Message: "generation backend unavailable",
				Err:     errors.New("connection refused"),
			},
			wantMsg: "unavailable: generation backend unavailable (connection refused)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    WrapExternal("backend said no", nil),
			target: ErrBackendError,
			want:   true,
		},
		{
			name:   "different error type",
			err:    WrapValidation("bad body", nil),
			target: ErrBackendError,
			want:   false,
		},
		{
			name:   "wrapped with fmt",
			err:    fmt.Errorf("generate: %w", WrapUnavailable("dial failed", nil)),
			target: ErrBackendUnavailable,
			want:   true,
		},
		{
			name:   "plain error",
			err:    errors.New("boom"),
			target: ErrInternal,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeExternal, "backend error", nil).
		WithDetail("status", 503).
		WithDetail("body", "overloaded")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, 503, details["status"])
	assert.Equal(t, "overloaded", details["body"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", WrapValidation("x", nil), IsValidationError},
		{"internal", WrapInternal("x", nil), IsInternalError},
		{"external", WrapExternal("x", nil), IsExternalError},
		{"unavailable", WrapUnavailable("x", nil), IsUnavailableError},
		{"unauthorized", ErrUnauthorized, IsUnauthorizedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(errors.New(tt.name)))
		})
	}

	assert.Equal(t, ErrorTypeInternal, GetErrorType(WrapInternal("x", nil)))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Nil(t, GetErrorDetails(errors.New("plain")))
}
