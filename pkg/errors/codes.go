package errors

// Code represents a machine-readable error code for categorizing errors.
// Error codes follow the pattern CATEGORY_XXX where CATEGORY is a short
// identifier (e.g., AUTH, VAL, NF) and XXX is a three-digit numeric code.
//
// Error codes are designed to be:
//   - Stable: Codes do not change once assigned
//   - Unique: Each error condition has a distinct code
//   - Searchable: Codes can be used to find documentation and solutions
//   - Machine-readable: Suitable for automated error handling
type Code string

// Error code categories and their ranges:
//
//	VAL_xxx     - Validation errors (400 Bad Request)
//	AUTH_xxx    - Authentication errors (401 Unauthorized)
//	NF_xxx      - Not found errors (404 Not Found)
//	INT_xxx     - Internal errors (500 Internal Server Error)
//	UNAVAIL_xxx - Service unavailable (503 Service Unavailable)
//	TIMEOUT_xxx - Timeout errors (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400
	// Used when verifier inputs or configuration fail validation rules.

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required input is missing,
	// such as a verifier constructed with an empty project ID.
	CodeValidationRequired Code = "VAL_002"

	// Authentication errors (AUTH_xxx) - HTTP 401
	// Used when an ID token fails verification. Callers must treat every
	// AUTH error as "reject the request", never as a soft warning.

	// CodeAuthentication indicates a general authentication failure.
	CodeAuthentication Code = "AUTH_001"

	// CodeTokenExpired indicates the current time is at or past the
	// token's expiration claim.
	CodeTokenExpired Code = "AUTH_002"

	// CodeTokenIssuedInFuture indicates the current time is before the
	// token's issued-at claim. This is a clock-skew or replay signal and
	// is kept distinct from expiration.
	CodeTokenIssuedInFuture Code = "AUTH_003"

	// CodeClaimIncorrect indicates a claim is present but fails its
	// validation rule (wrong algorithm, audience, issuer, or an
	// over-length subject).
	CodeClaimIncorrect Code = "AUTH_004"

	// CodeSignatureInvalid indicates the cryptographic signature check
	// failed against the fetched public key.
	CodeSignatureInvalid Code = "AUTH_005"

	// CodeTokenMalformed indicates the token string is not a well-formed
	// three-segment signed structure.
	CodeTokenMalformed Code = "AUTH_006"

	// Not found errors (NF_xxx) - HTTP 404
	// Used when a required claim or a published public key is absent.

	// CodeNotFound indicates a general not found error.
	CodeNotFound Code = "NF_001"

	// CodeNotFoundClaim indicates a required claim (kid, sub, iat, exp,
	// auth_time) is missing from the token.
	CodeNotFoundClaim Code = "NF_002"

	// CodeNotFoundPublicKey indicates the requested key ID is not in the
	// provider's currently published key set. This is a verification
	// failure, not a transport error.
	CodeNotFoundPublicKey Code = "NF_003"

	// Internal errors (INT_xxx) - HTTP 500
	// Used for unexpected internal failures.

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalConfiguration indicates a configuration loading error.
	CodeInternalConfiguration Code = "INT_002"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503
	// Used when the certificate source is temporarily unreachable.

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableKeySource indicates the certificate endpoint could
	// not be fetched or its response could not be parsed. Kept distinct
	// from CodeNotFoundPublicKey so a transport outage is never mistaken
	// for a rotated-away key.
	CodeUnavailableKeySource Code = "UNAVAIL_002"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504
	// Used when an operation exceeds its time limit.

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutKeySource indicates the certificate fetch exceeded its
	// deadline.
	CodeTimeoutKeySource Code = "TIMEOUT_002"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "VAL", "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
