package idtoken

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// fakeServerStream is a minimal grpc.ServerStream carrying only a context.
type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context {
	return s.ctx
}

func grpcTestContext(authValues ...string) context.Context {
	md := metadata.MD{}
	if len(authValues) > 0 {
		md.Set(HeaderAuthorization, authValues...)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryServerInterceptor_ValidToken(t *testing.T) {
	verifier := &mockVerifier{identity: &VerifiedIdentity{Subject: "user-1"}}
	interceptor := UnaryServerInterceptor(verifier)

	var seen *VerifiedIdentity
	resp, err := interceptor(
		grpcTestContext("Bearer some-token"),
		"request",
		&grpc.UnaryServerInfo{FullMethod: "/svc/Method"},
		func(ctx context.Context, req any) (any, error) {
			seen, _ = IdentityFromContext(ctx)
			return "response", nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "response", resp)
	assert.Equal(t, "some-token", verifier.gotToken)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.Subject)
}

func TestUnaryServerInterceptor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		verifier *mockVerifier
	}{
		{
			name:     "no metadata",
			ctx:      context.Background(),
			verifier: &mockVerifier{},
		},
		{
			name:     "no authorization value",
			ctx:      grpcTestContext(),
			verifier: &mockVerifier{},
		},
		{
			name:     "wrong scheme",
			ctx:      grpcTestContext("Basic some-token"),
			verifier: &mockVerifier{},
		},
		{
			name:     "verification failure",
			ctx:      grpcTestContext("Bearer bad-token"),
			verifier: &mockVerifier{err: fterr.New(fterr.CodeTokenExpired, "token expired")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			interceptor := UnaryServerInterceptor(tt.verifier)

			_, err := interceptor(tt.ctx, "request", &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler should not be reached")
				return nil, nil
			})

			require.Error(t, err)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}

func TestStreamServerInterceptor_ValidToken(t *testing.T) {
	verifier := &mockVerifier{identity: &VerifiedIdentity{Subject: "user-1"}}
	interceptor := StreamServerInterceptor(verifier)

	var seen *VerifiedIdentity
	err := interceptor(
		"server",
		&fakeServerStream{ctx: grpcTestContext("Bearer some-token")},
		&grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv any, stream grpc.ServerStream) error {
			seen, _ = IdentityFromContext(stream.Context())
			return nil
		},
	)

	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.Subject)
}

func TestStreamServerInterceptor_MissingToken(t *testing.T) {
	interceptor := StreamServerInterceptor(&mockVerifier{})

	err := interceptor(
		"server",
		&fakeServerStream{ctx: grpcTestContext()},
		&grpc.StreamServerInfo{},
		func(srv any, stream grpc.ServerStream) error {
			t.Fatal("handler should not be reached")
			return nil
		},
	)

	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
