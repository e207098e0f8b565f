package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
)

// redisKeyPrefix namespaces result entries so Clear never touches keys
// owned by other applications sharing the instance.
const redisKeyPrefix = "domainmcp:results:"

var _ ResultCache = (*RedisCache)(nil)

// RedisCache stores results in Redis with server-side expiry. Hit and miss
// counters are process-local; entry counts are read from the server.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	hits   atomic.Uint64
	misses atomic.Uint64
	logger *zap.SugaredLogger
}

// NewRedisCache connects to addr and verifies the connection with a ping.
// ttl <= 0 falls back to the default of one hour.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration, logger *zap.SugaredLogger) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTLSeconds * time.Second
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Get reads and decodes a cached result. Backend and decode failures are
// logged and read as misses; the cache never fails a request.
func (c *RedisCache) Get(ctx context.Context, domainID, requestHash string) (*domains.DomainResult, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+Key(domainID, requestHash)).Bytes()
	if err == redis.Nil {
		c.misses.Add(1)
		return nil, false
	}
	if err != nil {
		c.logger.Warnw("Cache read failed", "domain_id", domainID, "error", err)
		c.misses.Add(1)
		return nil, false
	}

	var result domains.DomainResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warnw("Cache entry corrupt, treating as miss", "domain_id", domainID, "error", err)
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return &result, true
}

// Put stores the result with the configured TTL applied server-side.
func (c *RedisCache) Put(ctx context.Context, domainID, requestHash string, result *domains.DomainResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "failed to encode result for cache")
	}

	key := redisKeyPrefix + Key(domainID, requestHash)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to cache result for %s", domainID)
	}
	return nil
}

// Stats counts namespaced keys with SCAN, which walks the keyspace.
func (c *RedisCache) Stats() Stats {
	entries := 0
	iter := c.client.Scan(context.Background(), 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(context.Background()) {
		entries++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warnw("Cache key scan failed", "error", err)
	}

	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: entries,
	}
}

// Clear deletes all namespaced keys and resets the counters.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "failed to scan cache keys")
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return errors.Wrap(err, "failed to delete cache keys")
		}
	}

	c.hits.Store(0)
	c.misses.Store(0)
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
