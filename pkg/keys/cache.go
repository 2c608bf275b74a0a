package keys

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	fterr "github.com/StricklySoft/firetoken/pkg/errors"
)

// DefaultCacheTTL is the certificate cache lifetime used when no TTL is
// configured. Google rotates signing keys on the order of hours, so an
// hour keeps the cache well inside the rotation window.
const DefaultCacheTTL = 1 * time.Hour

// CacheConfig holds the configuration for certificate caching decorators.
type CacheConfig struct {
	// TTL is the maximum time a fetched certificate is cached before a
	// fresh fetch is required. When the inner fetcher reports a
	// Cache-Control max-age shorter than this, the max-age wins.
	// Must be non-negative. Defaults to 1 hour.
	TTL time.Duration `json:"ttl" env:"TTL" envDefault:"1h"`

	// RedisKeyPrefix is the prefix for certificate keys in Redis when the
	// [RedisCache] decorator is used. Defaults to "firetoken:cert:".
	RedisKeyPrefix string `json:"redis_key_prefix" env:"REDIS_KEY_PREFIX" envDefault:"firetoken:cert:"`
}

// Validate checks the configuration for logical correctness and returns
// a *[fterr.Error] with code [fterr.CodeValidation] if any field is invalid.
func (c *CacheConfig) Validate() *fterr.Error {
	if c.TTL < 0 {
		return fterr.New(fterr.CodeValidation, "keys: cache TTL must be non-negative")
	}
	return nil
}

// DefaultCacheConfig returns a CacheConfig with the default TTL and Redis
// key prefix.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:            DefaultCacheTTL,
		RedisKeyPrefix: "firetoken:cert:",
	}
}

// maxAger is implemented by fetchers that learn the provider's cache
// policy from its responses. [GoogleFetcher] implements it.
type maxAger interface {
	MaxAge() time.Duration
}

// cacheEntry stores a fetched certificate and its expiration time.
type cacheEntry struct {
	der       []byte
	expiresAt time.Time
}

// MemoryCache is a [Fetcher] decorator that caches certificates in memory,
// keyed by key ID. Concurrent fetches of the same uncached key ID are
// collapsed into a single upstream call via singleflight, so a burst of
// verifications after a key rotation produces exactly one endpoint request.
//
// Fetch errors are never cached: an unknown key ID may be a rotation in
// progress, and the next fetch must be allowed to see the new set.
//
// MemoryCache is safe for concurrent use.
type MemoryCache struct {
	inner  Fetcher
	ttl    time.Duration
	tracer trace.Tracer

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// Compile-time assertion that MemoryCache implements Fetcher.
var _ Fetcher = (*MemoryCache)(nil)

// NewMemoryCache wraps the given fetcher with an in-memory certificate
// cache. If ttl is zero or negative, [DefaultCacheTTL] is used.
func NewMemoryCache(inner Fetcher, ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		inner:   inner,
		ttl:     ttl,
		tracer:  otel.Tracer(tracerName),
		entries: make(map[string]cacheEntry),
	}
}

// Fetch returns the cached certificate for the key ID, or fetches it from
// the inner Fetcher on a miss. The returned bytes are shared with the
// cache and must not be modified.
func (c *MemoryCache) Fetch(ctx context.Context, keyID string) ([]byte, error) {
	_, span := c.tracer.Start(ctx, "keys.CacheFetch")
	defer span.End()
	span.SetAttributes(attribute.String("keys.kid", keyID))

	if der, ok := c.get(keyID); ok {
		span.SetAttributes(attribute.Bool("keys.cache_hit", true))
		return der, nil
	}
	span.SetAttributes(attribute.Bool("keys.cache_hit", false))

	// Collapse concurrent misses on the same key ID into one upstream call.
	result, err, _ := c.group.Do(keyID, func() (any, error) {
		if der, ok := c.get(keyID); ok {
			return der, nil
		}
		der, err := c.inner.Fetch(ctx, keyID)
		if err != nil {
			return nil, err
		}
		c.put(keyID, der)
		return der, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return result.([]byte), nil
}

// get retrieves a cached certificate by key ID. Returns the DER bytes and
// true if the entry exists and has not expired.
func (c *MemoryCache) get(keyID string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[keyID]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.der, true
}

// put stores a certificate. The effective TTL is the configured TTL,
// bounded by the inner fetcher's reported Cache-Control max-age when one
// is available.
func (c *MemoryCache) put(keyID string, der []byte) {
	ttl := c.ttl
	if ma, ok := c.inner.(maxAger); ok {
		if maxAge := ma.MaxAge(); maxAge > 0 && maxAge < ttl {
			ttl = maxAge
		}
	}

	c.mu.Lock()
	c.entries[keyID] = cacheEntry{
		der:       der,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}
