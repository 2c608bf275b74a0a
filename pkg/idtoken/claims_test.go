package idtoken

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func TestStringAccessors(t *testing.T) {
	claims := map[string]any{
		"sub": "user-1",
		"aud": "project-1",
		"iss": issuerPrefix + "project-1",
	}

	sub, err := Subject(claims)
	require.Nil(t, err)
	assert.Equal(t, "user-1", sub)

	aud, err := Audience(claims)
	require.Nil(t, err)
	assert.Equal(t, "project-1", aud)

	iss, err := Issuer(claims)
	require.Nil(t, err)
	assert.Equal(t, issuerPrefix+"project-1", iss)
}

func TestStringAccessors_MissingAndWrongType(t *testing.T) {
	_, err := Subject(map[string]any{})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeNotFoundClaim, err.Code)
	assert.Equal(t, "sub", err.Details["claim"])

	_, err = Audience(map[string]any{"aud": 7.0})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)
	assert.Equal(t, "aud", err.Details["claim"])
}

func TestTimeAccessors(t *testing.T) {
	when := time.Unix(1767225600, 0)

	tests := []struct {
		name  string
		value any
	}{
		{"float64", float64(when.Unix())},
		{"json.Number", json.Number("1767225600")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := map[string]any{"iat": tt.value, "exp": tt.value, "auth_time": tt.value}

			iat, err := IssuedAt(claims)
			require.Nil(t, err)
			assert.True(t, iat.Equal(when))

			exp, err := Expiration(claims)
			require.Nil(t, err)
			assert.True(t, exp.Equal(when))

			authTime, err := AuthTime(claims)
			require.Nil(t, err)
			assert.True(t, authTime.Equal(when))
		})
	}
}

func TestTimeAccessors_MissingAndWrongType(t *testing.T) {
	_, err := Expiration(map[string]any{})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeNotFoundClaim, err.Code)
	assert.Equal(t, "exp", err.Details["claim"])

	_, err = IssuedAt(map[string]any{"iat": "yesterday"})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)

	_, err = AuthTime(map[string]any{"auth_time": json.Number("not-a-number")})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)
}

func TestKeyID(t *testing.T) {
	kid, err := KeyID(map[string]any{"alg": "RS256", "kid": "kid-9"})
	require.Nil(t, err)
	assert.Equal(t, "kid-9", kid)

	// Absent and present-but-empty both count as missing.
	_, err = KeyID(map[string]any{"alg": "RS256"})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeNotFoundClaim, err.Code)

	_, err = KeyID(map[string]any{"alg": "RS256", "kid": ""})
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeNotFoundClaim, err.Code)
}

func TestAlgorithm(t *testing.T) {
	alg, err := Algorithm(map[string]any{"alg": "RS256"})
	require.Nil(t, err)
	assert.Equal(t, "RS256", alg)
}

// ---------------------------------------------------------------------------
// Validators
// ---------------------------------------------------------------------------

func TestValidateAlgorithm(t *testing.T) {
	tests := []struct {
		name     string
		alg      any
		wantCode fterr.Code
	}{
		{"RS256", "RS256", ""},
		{"none", "none", fterr.CodeClaimIncorrect},
		{"RS384", "RS384", fterr.CodeClaimIncorrect},
		{"HS256", "HS256", fterr.CodeClaimIncorrect},
		{"lowercase", "rs256", fterr.CodeClaimIncorrect},
		{"missing", nil, fterr.CodeNotFoundClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]any{}
			if tt.alg != nil {
				header["alg"] = tt.alg
			}

			err := validateAlgorithm(header)
			if tt.wantCode == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestValidateAudience(t *testing.T) {
	assert.Nil(t, validateAudience(map[string]any{"aud": "p1"}, "p1"))

	err := validateAudience(map[string]any{"aud": "p2"}, "p1")
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)
	assert.Equal(t, "p1", err.Details["expected"])
	assert.Equal(t, "p2", err.Details["actual"])

	err = validateAudience(map[string]any{}, "p1")
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeNotFoundClaim, err.Code)
}

func TestValidateIssuer(t *testing.T) {
	claims := map[string]any{"iss": issuerPrefix + "p1"}
	assert.Nil(t, validateIssuer(claims, "p1"))

	// The comparison is against the whole URL, not just the project suffix.
	err := validateIssuer(claims, "p2")
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)

	err = validateIssuer(map[string]any{"iss": "p1"}, "p1")
	require.NotNil(t, err)
	assert.Equal(t, fterr.CodeClaimIncorrect, err.Code)
}

func TestValidateSubject(t *testing.T) {
	tests := []struct {
		name     string
		claims   map[string]any
		wantCode fterr.Code
	}{
		{"simple", map[string]any{"sub": "user-1"}, ""},
		{"128 runes", map[string]any{"sub": strings.Repeat("x", 128)}, ""},
		{"129 runes", map[string]any{"sub": strings.Repeat("x", 129)}, fterr.CodeClaimIncorrect},
		{"128 multibyte runes", map[string]any{"sub": strings.Repeat("ü", 128)}, ""},
		{"129 multibyte runes", map[string]any{"sub": strings.Repeat("ü", 129)}, fterr.CodeClaimIncorrect},
		{"empty", map[string]any{"sub": ""}, fterr.CodeClaimIncorrect},
		{"missing", map[string]any{}, fterr.CodeNotFoundClaim},
		{"not a string", map[string]any{"sub": 1.0}, fterr.CodeClaimIncorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSubject(tt.claims)
			if tt.wantCode == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Unix(1767225600, 0)
	windowClaims := func(iat, exp time.Time) map[string]any {
		return map[string]any{
			"iat": float64(iat.Unix()),
			"exp": float64(exp.Unix()),
		}
	}

	tests := []struct {
		name     string
		claims   map[string]any
		wantCode fterr.Code
	}{
		{"inside window", windowClaims(now.Add(-time.Hour), now.Add(time.Hour)), ""},
		{"now equals iat", windowClaims(now, now.Add(time.Hour)), ""},
		{"now equals exp", windowClaims(now.Add(-time.Hour), now), fterr.CodeTokenExpired},
		{"expired", windowClaims(now.Add(-2*time.Hour), now.Add(-time.Hour)), fterr.CodeTokenExpired},
		{"issued in future", windowClaims(now.Add(time.Minute), now.Add(time.Hour)), fterr.CodeTokenIssuedInFuture},
		{"missing iat", map[string]any{"exp": float64(now.Add(time.Hour).Unix())}, fterr.CodeNotFoundClaim},
		{"missing exp", map[string]any{"iat": float64(now.Add(-time.Hour).Unix())}, fterr.CodeNotFoundClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateWindow(tt.claims, now)
			if tt.wantCode == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.wantCode, err.Code)
		})
	}
}
