package idtoken

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithIdentity_RoundTrip(t *testing.T) {
	identity := &VerifiedIdentity{Subject: "user-1"}
	ctx := ContextWithIdentity(context.Background(), identity)

	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, identity, got)
}

func TestIdentityFromContext_Missing(t *testing.T) {
	got, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestMustIdentityFromContext(t *testing.T) {
	identity := &VerifiedIdentity{Subject: "user-1"}
	ctx := ContextWithIdentity(context.Background(), identity)

	assert.Same(t, identity, MustIdentityFromContext(ctx))
	assert.Panics(t, func() { MustIdentityFromContext(context.Background()) })
}
