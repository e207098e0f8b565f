package cache

import (
	"context"
	"sync"
	"time"

	"github.com/powerautomation/domainmcp/domains"
)

var _ ResultCache = (*MemoryCache)(nil)

type entry struct {
	result   *domains.DomainResult
	storedAt time.Time
}

// MemoryCache is a mutex-guarded map with lazy expiry: entries are removed
// when a lookup finds them older than the TTL, not by a background sweeper.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	hits    uint64
	misses  uint64

	timeNow func() time.Time
}

// NewMemoryCache creates a cache with the given TTL.
// ttl <= 0 falls back to the default of one hour.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return NewMemoryCacheWithClock(ttl, time.Now)
}

// NewMemoryCacheWithClock creates a cache with a custom time source.
// Tests inject a fake clock to exercise expiry without sleeping.
func NewMemoryCacheWithClock(ttl time.Duration, timeNow func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTLSeconds * time.Second
	}
	return &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		timeNow: timeNow,
	}
}

// Get returns the cached result, evicting and missing if it has expired.
func (c *MemoryCache) Get(_ context.Context, domainID, requestHash string) (*domains.DomainResult, bool) {
	key := Key(domainID, requestHash)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.timeNow().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return e.result, true
}

// Put stores the result with a fresh timestamp, overwriting any prior entry.
func (c *MemoryCache) Put(_ context.Context, domainID, requestHash string, result *domains.DomainResult) error {
	key := Key(domainID, requestHash)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{result: result, storedAt: c.timeNow()}
	return nil
}

func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
	}
}

// Clear drops all entries and resets the lookup counters.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.hits = 0
	c.misses = 0
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}
