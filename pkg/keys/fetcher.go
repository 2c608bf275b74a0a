// Package keys fetches and caches the X.509 certificates Google publishes
// for verifying Firebase ID token signatures.
//
// The certificate set rotates on Google's schedule, so every component in
// this package deals with key IDs (the "kid" JWT header) rather than fixed
// keys. The [Fetcher] interface is the seam: [GoogleFetcher] talks to the
// securetoken endpoint, while [MemoryCache] and [RedisCache] are decorators
// that layer caching over any Fetcher without the verification logic
// knowing about it.
package keys

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// GoogleCertificateURL is the endpoint where Google publishes the X.509
// certificates for securetoken@system.gserviceaccount.com, the service
// account that signs Firebase ID tokens. The response is a JSON object
// mapping key ID to PEM-encoded certificate.
const GoogleCertificateURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// maxResponseSize is the maximum accepted size for a certificate endpoint
// response (1 MB). Larger responses are truncated and fail JSON parsing.
const maxResponseSize = 1 << 20

// tracerName is the OpenTelemetry instrumentation scope name for key
// fetching spans.
const tracerName = "github.com/StricklySoft/firetoken/pkg/keys"

// Fetcher retrieves the signing certificate for a key ID.
//
// Fetch returns the certificate as DER bytes on success. When the key ID is
// not in the provider's currently published set, it returns a not-found
// error carrying the key ID; transport and decoding failures return a
// distinct unavailable or timeout error, so callers can tell "this kid does
// not exist" apart from "the key source could not be reached".
//
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, keyID string) ([]byte, error)
}

// HTTPClient abstracts the HTTP client used for fetching certificates.
// This allows callers to provide custom HTTP clients with specific
// timeouts, transport settings, or middleware.
//
// The standard [http.Client] satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GoogleFetcher fetches signing certificates from Google's securetoken
// certificate endpoint. It implements [Fetcher] and is safe for concurrent
// use.
//
// Every call to Fetch performs an HTTP request; wrap the fetcher in a
// [MemoryCache] or [RedisCache] to avoid hitting the endpoint on every
// verification.
type GoogleFetcher struct {
	client   HTTPClient
	endpoint string
	tracer   trace.Tracer

	mu     sync.RWMutex
	maxAge time.Duration
}

// Compile-time assertion that GoogleFetcher implements Fetcher.
var _ Fetcher = (*GoogleFetcher)(nil)

// NewGoogleFetcher creates a GoogleFetcher that queries
// [GoogleCertificateURL]. If client is nil, a default [http.Client] with a
// 10-second timeout is used.
func NewGoogleFetcher(client HTTPClient) *GoogleFetcher {
	return NewGoogleFetcherWithEndpoint(client, GoogleCertificateURL)
}

// NewGoogleFetcherWithEndpoint creates a GoogleFetcher that queries the
// given endpoint instead of the production Google URL. This exists for
// tests and for proxied deployments; the response format must match the
// securetoken endpoint (a JSON object of key ID to PEM certificate).
func NewGoogleFetcherWithEndpoint(client HTTPClient, endpoint string) *GoogleFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleFetcher{
		client:   client,
		endpoint: endpoint,
		tracer:   otel.Tracer(tracerName),
	}
}

// Fetch retrieves the certificate for the given key ID from the endpoint
// and returns its DER bytes.
//
// Returns a *[fterr.Error] with code [fterr.CodeNotFoundPublicKey] when the
// key ID is absent from the published set, [fterr.CodeTimeoutKeySource]
// when the request deadline is exceeded, and
// [fterr.CodeUnavailableKeySource] for every other transport, status, or
// decoding failure.
func (f *GoogleFetcher) Fetch(ctx context.Context, keyID string) ([]byte, error) {
	ctx, span := f.tracer.Start(ctx, "keys.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("keys.kid", keyID))

	certs, err := f.fetchCertificates(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	pemCert, ok := certs[keyID]
	if !ok {
		err := fterr.PublicKeyNotFound(keyID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		err := fterr.Newf(fterr.CodeUnavailableKeySource, "certificate for key ID %q is not valid PEM", keyID)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return block.Bytes, nil
}

// MaxAge returns the Cache-Control max-age of the most recent successful
// endpoint response, or zero if no response has been seen or the response
// carried no max-age directive. Caching decorators use this to honor the
// provider's rotation policy.
func (f *GoogleFetcher) MaxAge() time.Duration {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.maxAge
}

// fetchCertificates performs the HTTP request and parses the key ID to PEM
// certificate map, recording the response's Cache-Control max-age.
func (f *GoogleFetcher) fetchCertificates(ctx context.Context) (map[string]string, *fterr.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fterr.Wrap(err, fterr.CodeInternal, "failed to create certificate request")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fterr.Wrap(err, fterr.CodeTimeoutKeySource, "certificate request timed out")
		}
		return nil, fterr.Wrap(err, fterr.CodeUnavailableKeySource, "certificate request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fterr.Newf(fterr.CodeUnavailableKeySource, "certificate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fterr.Wrap(err, fterr.CodeUnavailableKeySource, "failed to read certificate response")
	}

	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return nil, fterr.Wrap(err, fterr.CodeUnavailableKeySource, "failed to parse certificate response")
	}

	f.recordMaxAge(resp.Header.Get("Cache-Control"))

	return certs, nil
}

// recordMaxAge parses the max-age directive from a Cache-Control header
// value and stores it. Headers without a parseable max-age are ignored,
// leaving the previous value in place.
func (f *GoogleFetcher) recordMaxAge(cacheControl string) {
	maxAge, ok := parseMaxAge(cacheControl)
	if !ok {
		return
	}
	f.mu.Lock()
	f.maxAge = maxAge
	f.mu.Unlock()
}

// parseMaxAge extracts the max-age directive from a Cache-Control header
// value. Returns the duration and true on success, or zero and false when
// the directive is absent or malformed.
func parseMaxAge(cacheControl string) (time.Duration, bool) {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		value, found := strings.CutPrefix(directive, "max-age=")
		if !found {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	return 0, false
}

// isTimeout reports whether the error represents a deadline or timeout,
// either from the context or from the HTTP client's transport.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
