package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error without cause",
			err: &Error{
				Code:    CodeValidation,
				Message: "project ID must not be empty",
			},
			want: "VAL_001: project ID must not be empty",
		},
		{
			name: "error with cause",
			err: &Error{
				Code:    CodeUnavailableKeySource,
				Message: "certificate fetch failed",
				Cause:   errors.New("connection refused"),
			},
			want: "UNAVAIL_002: certificate fetch failed: connection refused",
		},
		{
			name: "error with empty message",
			err: &Error{
				Code:    CodeInternal,
				Message: "",
			},
			want: "INT_001: ",
		},
		{
			name: "error with nested typed error cause",
			err: &Error{
				Code:    CodeAuthentication,
				Message: "verification failed",
				Cause: &Error{
					Code:    CodeTimeoutKeySource,
					Message: "certificate fetch timed out",
				},
			},
			want: "AUTH_001: verification failed: TIMEOUT_002: certificate fetch timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying error")
	err := &Error{
		Code:    CodeInternal,
		Message: "operation failed",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())

	errNoCause := &Error{
		Code:    CodeValidation,
		Message: "no cause",
	}
	assert.Nil(t, errNoCause.Unwrap())
}

func TestError_HTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"validation maps to 400", CodeValidation, http.StatusBadRequest},
		{"empty project ID maps to 400", CodeValidationRequired, http.StatusBadRequest},
		{"expired token maps to 401", CodeTokenExpired, http.StatusUnauthorized},
		{"invalid signature maps to 401", CodeSignatureInvalid, http.StatusUnauthorized},
		{"malformed token maps to 401", CodeTokenMalformed, http.StatusUnauthorized},
		{"missing claim maps to 404", CodeNotFoundClaim, http.StatusNotFound},
		{"missing public key maps to 404", CodeNotFoundPublicKey, http.StatusNotFound},
		{"internal maps to 500", CodeInternal, http.StatusInternalServerError},
		{"key source unavailable maps to 503", CodeUnavailableKeySource, http.StatusServiceUnavailable},
		{"key source timeout maps to 504", CodeTimeoutKeySource, http.StatusGatewayTimeout},
		{"unknown category maps to 500", Code("WHAT_001"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := &Error{Code: tt.code, Message: "test"}
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestError_WithDetails(t *testing.T) {
	t.Parallel()
	original := &Error{
		Code:    CodeClaimIncorrect,
		Message: "audience mismatch",
		Details: map[string]any{"claim": "aud"},
	}

	updated := original.WithDetails(map[string]any{
		"expected": "my-project",
		"actual":   "other-project",
	})

	// Original must not be mutated.
	assert.Len(t, original.Details, 1)
	assert.Equal(t, "aud", original.Details["claim"])

	assert.Len(t, updated.Details, 3)
	assert.Equal(t, "aud", updated.Details["claim"])
	assert.Equal(t, "my-project", updated.Details["expected"])
	assert.Equal(t, "other-project", updated.Details["actual"])
	assert.Equal(t, original.Code, updated.Code)
	assert.Equal(t, original.Message, updated.Message)
}

func TestError_WithDetail(t *testing.T) {
	t.Parallel()
	original := New(CodeNotFoundPublicKey, "no such key")

	updated := original.WithDetail("kid", "abc123")

	assert.Nil(t, original.Details, "original must not gain details")
	assert.Equal(t, "abc123", updated.Details["kid"])
}

func TestError_WithDetail_OverwritesExisting(t *testing.T) {
	t.Parallel()
	err := New(CodeClaimIncorrect, "bad claim").
		WithDetail("claim", "iss").
		WithDetail("claim", "aud")

	assert.Equal(t, "aud", err.Details["claim"])
}

func TestError_Format(t *testing.T) {
	t.Parallel()
	err := &Error{
		Code:    CodeTokenExpired,
		Message: "token expiration has passed",
		Cause:   errors.New("exp=1700000000"),
		Details: map[string]any{"claim": "exp"},
	}

	plain := fmt.Sprintf("%v", err)
	assert.Equal(t, "AUTH_002: token expiration has passed: exp=1700000000", plain)

	quoted := fmt.Sprintf("%q", err)
	assert.Equal(t, `"AUTH_002: token expiration has passed: exp=1700000000"`, quoted)

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, `Code: "AUTH_002"`)
	assert.Contains(t, detailed, "Details:")
	assert.Contains(t, detailed, "Cause:")
}
