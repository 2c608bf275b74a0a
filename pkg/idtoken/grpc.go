package idtoken

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// verifies the bearer token in incoming request metadata.
//
// The interceptor performs the following steps:
//  1. Extracts the "authorization" metadata value (bearer token)
//  2. Verifies the token using the provided [TokenVerifier]
//  3. Stores the resulting [VerifiedIdentity] in the request context
//  4. Passes the enriched context to the handler
//
// If no authorization metadata is present or the token fails verification,
// the interceptor returns a gRPC Unauthenticated error.
func UnaryServerInterceptor(verifier TokenVerifier) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, err := verifyFromMetadata(ctx, verifier)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor that
// verifies the bearer token in incoming stream metadata.
//
// This interceptor performs the same verification steps as
// [UnaryServerInterceptor] but wraps the stream to carry the enriched
// context.
func StreamServerInterceptor(verifier TokenVerifier) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := verifyFromMetadata(ss.Context(), verifier)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// verifyFromMetadata extracts the bearer token from incoming gRPC
// metadata, verifies it, and enriches the context with the identity.
func verifyFromMetadata(ctx context.Context, verifier TokenVerifier) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	tokens := md.Get(HeaderAuthorization)
	if len(tokens) == 0 {
		return ctx, status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	token := ExtractBearerToken(tokens[0])
	if token == "" {
		return ctx, status.Error(codes.Unauthenticated, "invalid authorization format")
	}

	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "token verification failed")
	}

	return ContextWithIdentity(ctx, identity), nil
}

// wrappedServerStream wraps a grpc.ServerStream to override its Context
// method. This is necessary because ServerStream.Context() returns the
// original stream context, which does not contain the identity added by
// the interceptor.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context containing the verified identity.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
