// Package cache stores domain results keyed by (domain_id, request_hash)
// with a TTL. Backends are pluggable; the in-memory cache is the default
// and Redis is available for multi-process deployments.
package cache

import (
	"context"

	"github.com/powerautomation/domainmcp/domains"
)

// DefaultTTLSeconds is the result lifetime when none is configured.
const DefaultTTLSeconds = 3600

// ResultCache is the storage contract used by the registry. A cached
// result is returned only while it is younger than the TTL; expired
// entries read as misses.
//
// Implementations must be safe for concurrent use.
type ResultCache interface {
	// Get returns the cached result for (domainID, requestHash), or
	// (nil, false) on a miss. Backend failures read as misses; the
	// cache never fails a request.
	Get(ctx context.Context, domainID, requestHash string) (*domains.DomainResult, bool)

	// Put stores a result under (domainID, requestHash), overwriting any
	// previous entry and restarting its TTL.
	Put(ctx context.Context, domainID, requestHash string, result *domains.DomainResult) error

	// Stats reports lookup counters since creation (or the last Clear).
	Stats() Stats

	// Clear drops all entries and resets the counters.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Stats are cache lookup counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// HitRate returns hits/(hits+misses), or 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Key builds the canonical cache key. The request hash is already
// context-independent, so identical request text shares an entry per domain.
func Key(domainID, requestHash string) string {
	return domainID + ":" + requestHash
}
