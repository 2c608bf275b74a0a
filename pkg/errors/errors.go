// Package errors provides standardized error types and error handling
// utilities for the firetoken SDK. It defines the error categories a token
// verification pipeline produces, machine-readable error codes, and helper
// functions for creating, wrapping, and inspecting errors.
//
// # Error Categories
//
// The package defines several error categories that map to the failure
// scenarios of ID token verification:
//
//   - Validation errors: Invalid verifier configuration, missing required inputs
//   - Authentication errors: Malformed, expired, tampered, or misdirected tokens
//   - NotFound errors: Required claims or published public keys that are absent
//   - Internal errors: Unexpected system failures
//   - Unavailable errors: The certificate source cannot be reached
//   - Timeout errors: The certificate source did not respond in time
//
// # Error Codes
//
// Each error includes a machine-readable code (e.g., "AUTH_002") that can be
// used for error tracking, alerting, and client-side error handling. Error
// codes follow the pattern CATEGORY_XXX where CATEGORY is a short identifier
// and XXX is a numeric code.
//
// # Usage
//
// Create a new error with context:
//
//	err := errors.New(errors.CodeClaimIncorrect, "audience does not match project")
//
// Wrap an existing error:
//
//	err := errors.Wrap(err, errors.CodeUnavailableKeySource, "certificate fetch failed")
//
// Check error category:
//
//	if errors.IsAuthentication(err) {
//	    // reject the request
//	}
//
// Extract error details for logging:
//
//	if e, ok := errors.AsError(err); ok {
//	    logger.Error("verification failed",
//	        "code", e.Code,
//	        "message", e.Message,
//	    )
//	}
package errors
