// Package idtoken verifies Firebase ID tokens issued by Google's secure
// token service.
//
// A [Verifier] checks a token's claims against the configured Firebase
// project and verifies its RS256 signature against Google's rotating
// signing certificates, fetched through a [keys.Fetcher]. Verification is
// stateless: a Verifier is safe for unbounded concurrent use, and its only
// side effect is the certificate fetch, which callers control by choosing
// the Fetcher (see [keys.MemoryCache] and [keys.RedisCache]).
//
// The package also provides HTTP middleware and gRPC interceptors that
// verify bearer tokens on incoming requests and place the resulting
// [VerifiedIdentity] in the request context.
//
// Verification failures are reported as typed errors from the
// [github.com/StricklySoft/firetoken/pkg/errors] package, so callers can
// distinguish an expired token from a bad signature from an unreachable
// key source.
package idtoken

import "time"

// VerifiedIdentity is the result of a successful token verification.
type VerifiedIdentity struct {
	// Subject is the token's "sub" claim: the Firebase UID of the
	// authenticated user.
	Subject string

	// ResultTimestamp carries the token's "exp" claim.
	//
	// TODO: confirm with the consuming services whether this should carry
	// the "auth_time" claim instead; every current caller treats it as an
	// opaque timestamp, so the binding can still be changed.
	ResultTimestamp time.Time

	// Claims is the token's full payload. It is a copy made at
	// verification time; modifying it does not affect the verifier.
	Claims map[string]any
}

// UID returns the Firebase UID of the authenticated user. It is an alias
// for the Subject field, matching the name Firebase documentation uses.
func (v *VerifiedIdentity) UID() string {
	return v.Subject
}

// Claim returns the named claim from the token payload and whether it was
// present.
func (v *VerifiedIdentity) Claim(name string) (any, bool) {
	value, ok := v.Claims[name]
	return value, ok
}
