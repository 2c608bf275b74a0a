//go:build integration

// Package keys_test contains integration tests for the Redis certificate
// cache that require a running Redis instance via testcontainers-go. These
// tests are gated behind the "integration" build tag and are executed in
// CI with Docker.
//
// Run locally with:
//
//	go test -v -race -tags=integration ./pkg/keys/...
package keys_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/StricklySoft/firetoken/internal/testutil/containers"
	"github.com/StricklySoft/firetoken/pkg/keys"
)

// countingFetcher is a Fetcher that counts upstream calls.
type countingFetcher struct {
	mu    sync.Mutex
	certs map[string][]byte
	calls atomic.Int64
}

func (f *countingFetcher) Fetch(ctx context.Context, keyID string) ([]byte, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.certs[keyID], nil
}

// RedisCacheIntegrationSuite runs the Redis certificate cache against a
// single shared container. The container is started once in SetupSuite
// and terminated in TearDownSuite; test isolation comes from unique key
// prefixes per test method.
type RedisCacheIntegrationSuite struct {
	suite.Suite

	ctx         context.Context
	redisResult *containers.RedisResult
	client      *goredis.Client
}

func (s *RedisCacheIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	result, err := containers.StartRedis(s.ctx)
	s.Require().NoError(err, "failed to start redis container")
	s.redisResult = result

	opts, err := goredis.ParseURL(result.ConnString)
	s.Require().NoError(err, "failed to parse redis connection string")
	s.client = goredis.NewClient(opts)
	s.Require().NoError(s.client.Ping(s.ctx).Err())
}

func (s *RedisCacheIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.redisResult != nil {
		_ = s.redisResult.Container.Terminate(s.ctx)
	}
}

func (s *RedisCacheIntegrationSuite) TestReadThrough() {
	inner := &countingFetcher{certs: map[string][]byte{"kid-1": []byte("der-1")}}
	cache := keys.NewRedisCache(s.client, inner, keys.CacheConfig{
		TTL:            time.Minute,
		RedisKeyPrefix: "it:readthrough:",
	})

	der, err := cache.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal([]byte("der-1"), der)

	der, err = cache.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal([]byte("der-1"), der)

	s.Equal(int64(1), inner.calls.Load(), "second fetch should be served from redis")
}

func (s *RedisCacheIntegrationSuite) TestSharedAcrossReplicas() {
	inner1 := &countingFetcher{certs: map[string][]byte{"kid-1": []byte("der-1")}}
	inner2 := &countingFetcher{certs: map[string][]byte{"kid-1": []byte("der-1")}}
	cfg := keys.CacheConfig{TTL: time.Minute, RedisKeyPrefix: "it:replicas:"}

	replica1 := keys.NewRedisCache(s.client, inner1, cfg)
	replica2 := keys.NewRedisCache(s.client, inner2, cfg)

	_, err := replica1.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)

	der, err := replica2.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal([]byte("der-1"), der)

	s.Equal(int64(1), inner1.calls.Load())
	s.Zero(inner2.calls.Load(), "the second replica should hit the shared cache")
}

func (s *RedisCacheIntegrationSuite) TestEntryExpires() {
	inner := &countingFetcher{certs: map[string][]byte{"kid-1": []byte("der-1")}}
	cache := keys.NewRedisCache(s.client, inner, keys.CacheConfig{
		TTL:            time.Second,
		RedisKeyPrefix: "it:expiry:",
	})

	_, err := cache.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = cache.Fetch(s.ctx, "kid-1")
	s.Require().NoError(err)
	s.Equal(int64(2), inner.calls.Load(), "an expired entry should fall through to the origin")
}

func TestRedisCacheIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheIntegrationSuite))
}
