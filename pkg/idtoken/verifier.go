package idtoken

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
	"github.com/StricklySoft/firetoken/pkg/keys"
)

// tracerName is the OpenTelemetry instrumentation scope name for
// verification spans.
const tracerName = "github.com/StricklySoft/firetoken/pkg/idtoken"

// Clock returns the current time. Verifiers use an injected Clock so tests
// can pin "now" when exercising the token validity window.
type Clock func() time.Time

// TokenVerifier verifies a raw ID token string and returns the identity it
// attests. It is implemented by [*Verifier] and by mock implementations
// for testing middleware without real tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*VerifiedIdentity, error)
}

// Config holds the configuration for a [Verifier].
type Config struct {
	// ProjectID is the Firebase project the tokens must belong to. It is
	// checked against the "aud" claim and the project suffix of the "iss"
	// claim. Required.
	ProjectID string `json:"project_id" env:"PROJECT_ID" required:"true"`

	// KeyFetcher retrieves signing certificates by key ID. If nil, a
	// [keys.GoogleFetcher] with default settings is used. Wrap the fetcher
	// in [keys.NewMemoryCache] to avoid an HTTP request per verification.
	KeyFetcher keys.Fetcher `json:"-"`

	// Clock supplies the current time for the validity window check.
	// If nil, [time.Now] is used.
	Clock Clock `json:"-"`
}

// Validate checks the configuration for logical correctness and returns a
// *[fterr.Error] with code [fterr.CodeValidationRequired] if the project
// ID is empty.
func (c *Config) Validate() *fterr.Error {
	if c.ProjectID == "" {
		return fterr.New(fterr.CodeValidationRequired, "idtoken: project ID must not be empty")
	}
	return nil
}

// Verifier verifies Firebase ID tokens for a single project.
//
// Verifier is stateless and safe for concurrent use by any number of
// goroutines; the only side effect of a verification is the certificate
// fetch through the configured [keys.Fetcher].
type Verifier struct {
	projectID string
	issuer    string
	fetcher   keys.Fetcher
	clock     Clock
	tracer    trace.Tracer
}

// Compile-time assertion that Verifier implements TokenVerifier.
var _ TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a Verifier with the given configuration. The
// configuration is validated before use; an error is returned if the
// project ID is empty.
func NewVerifier(cfg Config) (*Verifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fetcher := cfg.KeyFetcher
	if fetcher == nil {
		fetcher = keys.NewGoogleFetcher(nil)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Verifier{
		projectID: cfg.ProjectID,
		issuer:    issuerPrefix + cfg.ProjectID,
		fetcher:   fetcher,
		clock:     clock,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Verify checks the token's claims and signature and returns the identity
// it attests.
//
// The method performs the following steps, stopping at the first failure:
//  1. Decodes the token
//  2. Checks the validity window ("iat" and "exp" against the clock)
//  3. Checks the signing algorithm is RS256
//  4. Checks the audience matches the project ID
//  5. Checks the issuer matches the project's secure token service URL
//  6. Checks the key ID header is present
//  7. Checks the subject is present, non-empty, and within length limits
//  8. Fetches the signing certificate for the key ID
//  9. Verifies the RS256 signature
//
// Returns a *[fterr.Error] with the appropriate error code on failure.
func (v *Verifier) Verify(ctx context.Context, token string) (*VerifiedIdentity, error) {
	return v.verify(ctx, token, false)
}

// VerifyAllowingExpired verifies the token like [Verifier.Verify] but
// skips the validity window check entirely, including the presence checks
// for "iat" and "exp". Use this when re-validating a token that is known
// to be expired, for example before minting a session cookie from a
// just-refreshed client.
func (v *Verifier) VerifyAllowingExpired(ctx context.Context, token string) (*VerifiedIdentity, error) {
	return v.verify(ctx, token, true)
}

func (v *Verifier) verify(ctx context.Context, token string, allowExpired bool) (*VerifiedIdentity, error) {
	ctx, span := v.tracer.Start(ctx, "idtoken.Verify")
	defer span.End()
	span.SetAttributes(
		attribute.String("idtoken.project_id", v.projectID),
		attribute.Bool("idtoken.allow_expired", allowExpired),
	)

	raw, parseErr := ParseToken(token)
	if parseErr != nil {
		finishSpan(span, parseErr)
		return nil, parseErr
	}

	if !allowExpired {
		if err := validateWindow(raw.Claims, v.clock()); err != nil {
			finishSpan(span, err)
			return nil, err
		}
	}

	if err := validateAlgorithm(raw.Header); err != nil {
		finishSpan(span, err)
		return nil, err
	}

	if err := validateAudience(raw.Claims, v.projectID); err != nil {
		finishSpan(span, err)
		return nil, err
	}

	if err := validateIssuer(raw.Claims, v.projectID); err != nil {
		finishSpan(span, err)
		return nil, err
	}

	kid, err := KeyID(raw.Header)
	if err != nil {
		finishSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("idtoken.kid", kid))

	if err := validateSubject(raw.Claims); err != nil {
		finishSpan(span, err)
		return nil, err
	}

	cert, fetchErr := v.fetcher.Fetch(ctx, kid)
	if fetchErr != nil {
		finishSpan(span, fetchErr)
		return nil, fetchErr
	}

	key, certErr := parseCertificate(cert)
	if certErr != nil {
		// The certificate and signature failure modes are deliberately
		// indistinguishable to callers; the span records which one it was.
		span.SetAttributes(attribute.String("idtoken.signature_failure", "certificate"))
		sigErr := fterr.Wrap(certErr, fterr.CodeSignatureInvalid, "token signature could not be verified")
		finishSpan(span, sigErr)
		return nil, sigErr
	}

	if verifyErr := verifyRS256(raw.SigningInput(), raw.Signature(), key); verifyErr != nil {
		span.SetAttributes(attribute.String("idtoken.signature_failure", "mismatch"))
		sigErr := fterr.Wrap(verifyErr, fterr.CodeSignatureInvalid, "token signature could not be verified")
		finishSpan(span, sigErr)
		return nil, sigErr
	}

	identity := buildIdentity(raw.Claims)
	span.SetAttributes(attribute.String("idtoken.subject", identity.Subject))

	return identity, nil
}

// buildIdentity assembles a VerifiedIdentity from validated claims. The
// claim map is copied so the identity does not alias the parsed token.
func buildIdentity(claims map[string]any) *VerifiedIdentity {
	sub, _ := Subject(claims)
	exp, _ := Expiration(claims)

	copied := make(map[string]any, len(claims))
	for k, v := range claims {
		copied[k] = v
	}

	return &VerifiedIdentity{
		Subject:         sub,
		ResultTimestamp: exp,
		Claims:          copied,
	}
}

// finishSpan records an error on the span if err is non-nil and sets the
// span status to Error.
func finishSpan(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
