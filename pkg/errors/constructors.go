package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeTokenExpired, "token expiration has passed")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
// Use this for creating errors with dynamic content in the message.
//
// Example:
//
//	err := errors.Newf(errors.CodeNotFoundPublicKey, "no certificate published for key ID %q", kid)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	body, err := io.ReadAll(resp.Body)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeUnavailableKeySource, "failed to read certificate response")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrapf returns nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeUnavailableKeySource, "fetching certificate for key ID %q", kid)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// ClaimNotFound creates a not-found error for a required claim that is
// absent from the token. The claim name is recorded in Details so callers
// can build an actionable message.
//
// Example:
//
//	err := errors.ClaimNotFound("exp")
func ClaimNotFound(claim string) *Error {
	return Newf(CodeNotFoundClaim, "token has no %q claim", claim).
		WithDetail("claim", claim)
}

// ClaimIncorrect creates an incorrect-claim error for a claim that is
// present but fails its validation rule. The claim name is recorded in
// Details; add expected/actual values with WithDetail where they are safe
// to expose.
//
// Example:
//
//	err := errors.ClaimIncorrect("aud", "audience does not match project")
func ClaimIncorrect(claim, message string) *Error {
	return New(CodeClaimIncorrect, message).
		WithDetail("claim", claim)
}

// PublicKeyNotFound creates a not-found error for a key ID that is absent
// from the provider's currently published key set.
//
// Example:
//
//	err := errors.PublicKeyNotFound(kid)
func PublicKeyNotFound(keyID string) *Error {
	return Newf(CodeNotFoundPublicKey, "no certificate published for key ID %q", keyID).
		WithDetail("kid", keyID)
}

// Validation creates a new validation error.
// This is a convenience function equivalent to New(CodeValidation, message).
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Unauthorized creates a new general authentication error.
// Use this when a token fails verification for a reason not covered by a
// more specific code.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Internal creates a new internal error.
// Use this for unexpected system failures that should not expose details to users.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a new internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Unavailable creates a new service unavailable error.
// Use this when the certificate source or another dependency is
// temporarily unreachable.
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a new timeout error.
// Use this when an operation exceeds its time limit.
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// FromError converts a standard error to an Error.
// If the error is already an *Error, it is returned as-is.
// Otherwise, it is wrapped as an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
