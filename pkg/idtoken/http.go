package idtoken

import (
	"net/http"
	"strings"
)

// HeaderAuthorization is the header carrying the bearer token on incoming
// requests. The lowercase form matches gRPC metadata conventions; HTTP
// header lookup is case-insensitive.
const HeaderAuthorization = "authorization"

// bearerPrefix is the standard "Bearer " prefix for authorization tokens.
const bearerPrefix = "Bearer "

// ExtractBearerToken extracts the token from an authorization header value.
// It handles the "Bearer " prefix case-insensitively.
// Returns an empty string if the header is empty or does not have a bearer
// prefix.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return authHeader[len(bearerPrefix):]
}

// HTTPMiddleware returns an HTTP middleware that verifies the bearer token
// on incoming requests.
//
// The middleware performs the following steps:
//  1. Extracts the "Authorization" header (bearer token)
//  2. Verifies the token using the provided [TokenVerifier]
//  3. Stores the resulting [VerifiedIdentity] in the request context
//  4. Passes the enriched request to the next handler
//
// If no Authorization header is present or the token fails verification,
// the middleware responds with HTTP 401 Unauthorized.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/data", handleData)
//	handler := idtoken.HTTPMiddleware(verifier)(mux)
//	http.ListenAndServe(":8080", handler)
func HTTPMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get(HeaderAuthorization))
			if token == "" {
				http.Error(w, "missing or invalid authorization header", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "token verification failed", http.StatusUnauthorized)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
