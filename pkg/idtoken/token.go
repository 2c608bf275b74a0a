package idtoken

import (
	"encoding/base64"

	"github.com/golang-jwt/jwt/v5"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// maxTokenSize is the maximum accepted size for a token string (8 KB).
// Tokens larger than this are rejected to prevent resource exhaustion.
const maxTokenSize = 8192

// RawToken is the decoded but unverified form of a compact JWS token.
// It exposes the header and claims for validation and the exact byte
// material the signature check needs. Nothing about a RawToken is trusted
// until [Verifier.Verify] succeeds.
type RawToken struct {
	// Header is the decoded JOSE header.
	Header map[string]any

	// Claims is the decoded payload.
	Claims map[string]any

	signingInput string
	signature    []byte
}

// ParseToken decodes a compact JWS token string without verifying it.
// Returns a *[fterr.Error] with code [fterr.CodeTokenMalformed] when the
// string is empty, oversized, or not a decodable three-part token.
func ParseToken(tokenStr string) (*RawToken, *fterr.Error) {
	if tokenStr == "" {
		return nil, fterr.New(fterr.CodeTokenMalformed, "token must not be empty")
	}
	if len(tokenStr) > maxTokenSize {
		return nil, fterr.New(fterr.CodeTokenMalformed, "token exceeds maximum size")
	}

	parser := jwt.NewParser()
	unverified, parts, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil || unverified == nil || len(parts) != 3 {
		return nil, fterr.Wrap(err, fterr.CodeTokenMalformed, "token is malformed")
	}

	mc, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fterr.New(fterr.CodeTokenMalformed, "unable to decode token claims")
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fterr.Wrap(err, fterr.CodeTokenMalformed, "token signature is not valid base64url")
	}

	claims := make(map[string]any, len(mc))
	for k, v := range mc {
		claims[k] = v
	}

	return &RawToken{
		Header:       unverified.Header,
		Claims:       claims,
		signingInput: parts[0] + "." + parts[1],
		signature:    signature,
	}, nil
}

// SigningInput returns the exact byte string the token's signature was
// computed over: the base64url-encoded header and payload joined by a dot.
func (t *RawToken) SigningInput() string {
	return t.signingInput
}

// Signature returns the decoded signature bytes.
func (t *RawToken) Signature() []byte {
	return t.signature
}
