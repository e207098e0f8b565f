package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerautomation/domainmcp/cache"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := cache.NewRedisCache(context.Background(), mr.Addr(), ttl, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCachePutGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t, time.Hour)

	_, ok := c.Get(ctx, "insurance_mcp", "hash1")
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, "insurance_mcp", "hash1", sampleResult("insurance_mcp")))

	got, ok := c.Get(ctx, "insurance_mcp", "hash1")
	require.True(t, ok)
	assert.Equal(t, "insurance_mcp", got.DomainID)
	assert.Equal(t, "policy reviewed", got.Content)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
}

func TestRedisCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Hour)

	require.NoError(t, c.Put(ctx, "insurance_mcp", "hash1", sampleResult("insurance_mcp")))

	mr.FastForward(59 * time.Minute)
	_, ok := c.Get(ctx, "insurance_mcp", "hash1")
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "insurance_mcp", "hash1")
	assert.False(t, ok, "redis must expire the key server-side")
}

func TestRedisCacheStatsAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t, time.Hour)

	c.Put(ctx, "insurance_mcp", "hash1", sampleResult("insurance_mcp"))
	c.Put(ctx, "tech_support_mcp", "hash2", sampleResult("tech_support_mcp"))
	c.Get(ctx, "insurance_mcp", "hash1")   // hit
	c.Get(ctx, "insurance_mcp", "nohash")  // miss

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 2, stats.Entries)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)

	require.NoError(t, c.Clear(ctx))
	stats = c.Stats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Hits)
}

func TestRedisCacheConnectFailure(t *testing.T) {
	_, err := cache.NewRedisCache(context.Background(), "127.0.0.1:1", time.Hour, nil)
	assert.Error(t, err)
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Hour)

	require.NoError(t, mr.Set("domainmcp:results:"+cache.Key("insurance_mcp", "hash1"), "not json"))

	_, ok := c.Get(ctx, "insurance_mcp", "hash1")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}
