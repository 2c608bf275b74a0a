package idtoken

import "context"

// contextKey is an unexported type used for context keys in this package.
// Using a distinct type prevents collisions with keys from other packages.
type contextKey int

// identityKey stores the verified identity in the context.
const identityKey contextKey = iota

// ContextWithIdentity returns a new context with the given identity
// attached. The identity can later be retrieved with [IdentityFromContext].
//
// This is typically called by [HTTPMiddleware] and the gRPC interceptors
// after successfully verifying a bearer token.
func ContextWithIdentity(ctx context.Context, identity *VerifiedIdentity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the verified identity from the context.
// Returns the identity and true if present, or nil and false if no
// identity has been set.
//
// Example:
//
//	identity, ok := idtoken.IdentityFromContext(ctx)
//	if !ok {
//	    return errors.Unauthorized("no identity in context")
//	}
//	log.Info("request from", "uid", identity.UID())
func IdentityFromContext(ctx context.Context) (*VerifiedIdentity, bool) {
	identity, ok := ctx.Value(identityKey).(*VerifiedIdentity)
	return identity, ok
}

// MustIdentityFromContext retrieves the verified identity from the
// context, panicking if none is present. This should only be used in code
// paths where an identity is guaranteed to exist (e.g., behind the
// authentication middleware).
func MustIdentityFromContext(ctx context.Context) *VerifiedIdentity {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		panic("idtoken: no identity in context; ensure authentication middleware is configured")
	}
	return identity
}
