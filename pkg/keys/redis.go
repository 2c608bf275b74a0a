package keys

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Cmdable defines the interface for the Redis command operations the
// certificate cache uses. This interface is satisfied by [*redis.Client]
// and by mock implementations for unit testing.
//
// The interface is intentionally narrow, exposing only the operations that
// [RedisCache] needs.
type Cmdable interface {
	// Get returns the string value of a key.
	Get(ctx context.Context, key string) *redis.StringCmd

	// Set sets the string value of a key with an optional expiration.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Compile-time interface compliance check. This ensures that *redis.Client
// satisfies the Cmdable interface at compile time rather than at runtime.
var _ Cmdable = (*redis.Client)(nil)

// RedisCache is a [Fetcher] decorator that caches certificates in Redis so
// multiple replicas share one certificate cache. Reads go through Redis
// first; on a miss the inner Fetcher is consulted and the result is stored
// best-effort with the configured TTL.
//
// Redis failures degrade to the inner Fetcher: a verification the origin
// could serve is never failed because the cache is down. Fetch errors from
// the inner Fetcher are not cached.
//
// RedisCache is safe for concurrent use.
type RedisCache struct {
	client Cmdable
	inner  Fetcher
	ttl    time.Duration
	prefix string
	tracer trace.Tracer
}

// Compile-time assertion that RedisCache implements Fetcher.
var _ Fetcher = (*RedisCache)(nil)

// NewRedisCache wraps the given fetcher with a Redis-backed certificate
// cache using the given command interface (typically [*redis.Client]).
// Zero-value config fields fall back to [DefaultCacheConfig].
func NewRedisCache(client Cmdable, inner Fetcher, cfg CacheConfig) *RedisCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.RedisKeyPrefix == "" {
		cfg.RedisKeyPrefix = DefaultCacheConfig().RedisKeyPrefix
	}
	return &RedisCache{
		client: client,
		inner:  inner,
		ttl:    cfg.TTL,
		prefix: cfg.RedisKeyPrefix,
		tracer: otel.Tracer(tracerName),
	}
}

// Fetch returns the certificate for the key ID from Redis, falling back to
// the inner Fetcher on a miss or a Redis failure.
func (c *RedisCache) Fetch(ctx context.Context, keyID string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "keys.RedisFetch")
	defer span.End()
	span.SetAttributes(attribute.String("keys.kid", keyID))

	key := c.prefix + keyID

	der, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("keys.cache_hit", true))
		return der, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Degrade to the origin; the cache being down is not fatal.
		slog.WarnContext(ctx, "keys: redis certificate read failed, falling back to origin",
			"error", err,
			"kid", keyID,
		)
	}
	span.SetAttributes(attribute.Bool("keys.cache_hit", false))

	der, fetchErr := c.inner.Fetch(ctx, keyID)
	if fetchErr != nil {
		return nil, fetchErr
	}

	ttl := c.ttl
	if ma, ok := c.inner.(maxAger); ok {
		if maxAge := ma.MaxAge(); maxAge > 0 && maxAge < ttl {
			ttl = maxAge
		}
	}

	if err := c.client.Set(ctx, key, der, ttl).Err(); err != nil {
		slog.WarnContext(ctx, "keys: redis certificate write failed",
			"error", err,
			"kid", keyID,
		)
	}

	return der, nil
}
