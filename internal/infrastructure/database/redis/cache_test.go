package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rankscope/rankscope/internal/config"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
)

func TestNewCache_RequiresDeps(t *testing.T) {
	_, err := NewCache(nil, logging.NewNop())
	assert.Error(t, err)

	_, err = NewCache(&Client{}, nil)
	assert.Error(t, err)
}

func TestFullKey(t *testing.T) {
	c := &redisCache{prefix: "rankscope"}
	assert.Equal(t, "rankscope:dataforseo:example.com", c.fullKey("dataforseo:example.com"))

	c = &redisCache{}
	assert.Equal(t, "plain", c.fullKey("plain"))
}

// testClient connects to the Redis instance named by
// RANKSCOPE_TEST_REDIS_ADDR, skipping when unset.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("RANKSCOPE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RANKSCOPE_TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr, DB: 15}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type cachedPayload struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

func TestCache_RoundTrip(t *testing.T) {
	client := testClient(t)
	cache, err := NewCache(client, logging.NewNop(), WithPrefix("test"), WithDefaultTTL(time.Minute))
	require.NoError(t, err)

	ctx := context.Background()
	key := "roundtrip"
	t.Cleanup(func() { _ = cache.Delete(ctx, key) })

	var missed cachedPayload
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, key, &missed))

	want := cachedPayload{Domain: "example.com", Count: 42}
	require.NoError(t, cache.Set(ctx, key, want, 0))

	var got cachedPayload
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, want, got)

	require.NoError(t, cache.Delete(ctx, key))
	assert.Equal(t, ErrCacheMiss, cache.Get(ctx, key, &got))
}

func TestCache_GetOrSet(t *testing.T) {
	client := testClient(t)
	cache, err := NewCache(client, logging.NewNop(), WithPrefix("test"))
	require.NoError(t, err)

	ctx := context.Background()
	key := "get-or-set"
	t.Cleanup(func() { _ = cache.Delete(ctx, key) })

	calls := 0
	loader := func(ctx context.Context) (interface{}, error) {
		calls++
		return cachedPayload{Domain: "loaded.com", Count: calls}, nil
	}

	var first cachedPayload
	require.NoError(t, cache.GetOrSet(ctx, key, &first, time.Minute, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "loaded.com", first.Domain)

	var second cachedPayload
	require.NoError(t, cache.GetOrSet(ctx, key, &second, time.Minute, loader))
	assert.Equal(t, 1, calls, "second call must hit the cache")
	assert.Equal(t, first, second)
}
