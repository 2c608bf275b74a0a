package idtoken

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

const (
	// algorithmRS256 is the only signing algorithm Firebase ID tokens use.
	algorithmRS256 = "RS256"

	// issuerPrefix is the prefix of the "iss" claim in Firebase ID tokens;
	// the project ID follows it.
	issuerPrefix = "https://securetoken.google.com/"

	// maxSubjectRunes is the maximum length of the "sub" claim, counted in
	// Unicode code points. Firebase UIDs are at most 128 characters.
	maxSubjectRunes = 128
)

// ---------------------------------------------------------------------------
// Claim accessors — pure functions over the decoded claim maps
// ---------------------------------------------------------------------------

// Subject returns the token's "sub" claim.
func Subject(claims map[string]any) (string, *fterr.Error) {
	return claimString(claims, "sub")
}

// Audience returns the token's "aud" claim. Firebase ID tokens carry a
// single string audience, never an array.
func Audience(claims map[string]any) (string, *fterr.Error) {
	return claimString(claims, "aud")
}

// Issuer returns the token's "iss" claim.
func Issuer(claims map[string]any) (string, *fterr.Error) {
	return claimString(claims, "iss")
}

// IssuedAt returns the token's "iat" claim as a time.
func IssuedAt(claims map[string]any) (time.Time, *fterr.Error) {
	return claimTime(claims, "iat")
}

// Expiration returns the token's "exp" claim as a time.
func Expiration(claims map[string]any) (time.Time, *fterr.Error) {
	return claimTime(claims, "exp")
}

// AuthTime returns the token's "auth_time" claim as a time: the moment the
// user last authenticated with Firebase.
func AuthTime(claims map[string]any) (time.Time, *fterr.Error) {
	return claimTime(claims, "auth_time")
}

// KeyID returns the token's "kid" header, identifying which of Google's
// rotating certificates signed the token.
func KeyID(header map[string]any) (string, *fterr.Error) {
	kid, err := claimString(header, "kid")
	if err != nil {
		return "", err
	}
	if kid == "" {
		return "", fterr.ClaimNotFound("kid")
	}
	return kid, nil
}

// Algorithm returns the token's "alg" header.
func Algorithm(header map[string]any) (string, *fterr.Error) {
	return claimString(header, "alg")
}

// claimString returns the named claim as a string. Absence is a not-found
// error; a present value of another type is an incorrect-claim error.
func claimString(claims map[string]any, name string) (string, *fterr.Error) {
	value, ok := claims[name]
	if !ok {
		return "", fterr.ClaimNotFound(name)
	}
	s, ok := value.(string)
	if !ok {
		return "", fterr.ClaimIncorrect(name, fmt.Sprintf("claim %q is not a string", name))
	}
	return s, nil
}

// claimTime returns the named claim as a time. JSON numbers decode as
// float64; json.Number is accepted for callers that decode with UseNumber.
func claimTime(claims map[string]any, name string) (time.Time, *fterr.Error) {
	value, ok := claims[name]
	if !ok {
		return time.Time{}, fterr.ClaimNotFound(name)
	}

	var seconds float64
	switch n := value.(type) {
	case float64:
		seconds = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, fterr.ClaimIncorrect(name, fmt.Sprintf("claim %q is not a number", name))
		}
		seconds = f
	default:
		return time.Time{}, fterr.ClaimIncorrect(name, fmt.Sprintf("claim %q is not a number", name))
	}

	return time.Unix(int64(seconds), 0), nil
}

// ---------------------------------------------------------------------------
// Claim validators
// ---------------------------------------------------------------------------

// validateAlgorithm checks that the token was signed with RS256. Every
// other value, including "none", is rejected before any key material is
// touched.
func validateAlgorithm(header map[string]any) *fterr.Error {
	alg, err := Algorithm(header)
	if err != nil {
		return err
	}
	if alg != algorithmRS256 {
		return fterr.ClaimIncorrect("alg", fmt.Sprintf("token algorithm is %q, expected %q", alg, algorithmRS256)).
			WithDetail("expected", algorithmRS256).
			WithDetail("actual", alg)
	}
	return nil
}

// validateAudience checks that the token's audience is exactly the project
// ID.
func validateAudience(claims map[string]any, projectID string) *fterr.Error {
	aud, err := Audience(claims)
	if err != nil {
		return err
	}
	if aud != projectID {
		return fterr.ClaimIncorrect("aud", "token audience does not match the project").
			WithDetail("expected", projectID).
			WithDetail("actual", aud)
	}
	return nil
}

// validateIssuer checks that the token's issuer is the secure token
// service URL for the project.
func validateIssuer(claims map[string]any, projectID string) *fterr.Error {
	iss, err := Issuer(claims)
	if err != nil {
		return err
	}
	expected := issuerPrefix + projectID
	if iss != expected {
		return fterr.ClaimIncorrect("iss", "token issuer does not match the project").
			WithDetail("expected", expected).
			WithDetail("actual", iss)
	}
	return nil
}

// validateSubject checks that the token's subject is present, non-empty,
// and at most 128 Unicode code points. An empty subject is present but
// fails the rule, so it is an incorrect-claim error rather than not-found.
func validateSubject(claims map[string]any) *fterr.Error {
	sub, err := Subject(claims)
	if err != nil {
		return err
	}
	if sub == "" {
		return fterr.ClaimIncorrect("sub", "token subject is empty")
	}
	if utf8.RuneCountInString(sub) > maxSubjectRunes {
		return fterr.ClaimIncorrect("sub", fmt.Sprintf("token subject is longer than %d characters", maxSubjectRunes))
	}
	return nil
}

// validateWindow checks that now falls inside the token's validity window
// [iat, exp). Both claims must be present; absence is reported as a
// not-found error for the specific claim, distinct from expiry.
func validateWindow(claims map[string]any, now time.Time) *fterr.Error {
	iat, err := IssuedAt(claims)
	if err != nil {
		return err
	}
	exp, err := Expiration(claims)
	if err != nil {
		return err
	}

	if now.Before(iat) {
		return fterr.New(fterr.CodeTokenIssuedInFuture, "token issued-at time is in the future").
			WithDetail("iat", iat.UTC().Format(time.RFC3339))
	}
	if !now.Before(exp) {
		return fterr.New(fterr.CodeTokenExpired, "token expiration time is in the past").
			WithDetail("exp", exp.UTC().Format(time.RFC3339))
	}
	return nil
}
