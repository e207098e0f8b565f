// Package registry is the domain MCP registry façade: it owns the set of
// registered domains and wires routing, caching, dispatch, and performance
// accounting into the process/route/status operations hosts build on.
//
// A Registry is constructed once per process and passed by reference; there
// is deliberately no package-level default instance.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/cache"
	"github.com/powerautomation/domainmcp/dispatch"
	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/monitor"
	"github.com/powerautomation/domainmcp/routing"
)

// DefaultMaxDomains bounds how many domains one request is routed to when
// the caller does not say otherwise.
const DefaultMaxDomains = 3

// Config carries the registry's construction-time settings. DiscoveryPaths
// and AutoDiscovery are stored verbatim and surfaced through Status; acting
// on them is the discovery package's job.
type Config struct {
	DiscoveryPaths  []string
	AutoDiscovery   bool
	MaxDomains      int
	MaxConcurrent   int
	CacheTTL        time.Duration
	PlatformVersion string
}

// Event summarizes one Process call for host-level observers such as the
// WebSocket event stream.
type Event struct {
	RequestID      string `json:"request_id"`
	RequestPreview string `json:"request_preview"`
	Matched        int    `json:"matched"`
	Succeeded      int    `json:"succeeded"`
	Failed         int    `json:"failed"`
	CacheHits      int    `json:"cache_hits"`
	DurationMS     int64  `json:"duration_ms"`
}

type registration struct {
	info         domains.DomainInfo
	handler      domains.Handler
	registeredAt time.Time
}

// Registry routes free-text requests to registered domain handlers.
type Registry struct {
	cfg    Config
	logger *zap.SugaredLogger

	engine    *routing.Engine
	processor *dispatch.Processor
	cache     cache.ResultCache
	monitor   *monitor.PerformanceMonitor

	mu        sync.RWMutex
	byID      map[string]*registration
	order     []string // registration order, the routing tie-breaker
	eventSink func(Event)
}

// New assembles a registry. A nil cache gets an in-memory backend with
// cfg.CacheTTL; a nil monitor gets one without Prometheus export; a nil
// logger is replaced with a nop.
func New(cfg Config, c cache.ResultCache, mon *monitor.PerformanceMonitor, log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if c == nil {
		c = cache.NewMemoryCache(cfg.CacheTTL)
	}
	if mon == nil {
		mon = monitor.New(monitor.Config{}, log)
	}
	if cfg.MaxDomains <= 0 {
		cfg.MaxDomains = DefaultMaxDomains
	}

	return &Registry{
		cfg:       cfg,
		logger:    log,
		engine:    routing.NewEngine(log.Named("routing")),
		processor: dispatch.New(cfg.MaxConcurrent, log.Named("dispatch")),
		cache:     c,
		monitor:   mon,
		byID:      make(map[string]*registration),
	}
}

// RegisterDomain validates and stores a domain, then synchronously re-trains
// the routing engine over the full domain set. A domain_id that is already
// registered is rejected with ErrRegistrationConflict; the existing
// registration is untouched.
func (r *Registry) RegisterDomain(info domains.DomainInfo, h domains.Handler) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if h == nil {
		return errors.NewInvalidDomain("domain %q has no handler", info.ID)
	}
	if err := r.checkPlatform(info); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[info.ID]; exists {
		return errors.NewRegistrationConflict(info.ID)
	}

	r.byID[info.ID] = &registration{
		info:         info,
		handler:      h,
		registeredAt: time.Now(),
	}
	r.order = append(r.order, info.ID)

	// Train before returning so the new domain is routable immediately.
	r.engine.Train(r.infosLocked())

	r.logger.Infow("Domain registered",
		"domain_id", info.ID,
		"keywords", len(info.Keywords),
		"threshold", info.ConfidenceThreshold,
		"total_domains", len(r.order))
	return nil
}

// checkPlatform enforces the domain's semver constraint against the
// configured platform version. Missing constraint or version skips the check.
func (r *Registry) checkPlatform(info domains.DomainInfo) error {
	if info.PlatformConstraint == "" || r.cfg.PlatformVersion == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(info.PlatformConstraint)
	if err != nil {
		return errors.NewInvalidDomain("domain %q has malformed platform constraint %q: %v",
			info.ID, info.PlatformConstraint, err)
	}
	version, err := semver.NewVersion(r.cfg.PlatformVersion)
	if err != nil {
		return errors.Wrapf(err, "malformed platform version %q", r.cfg.PlatformVersion)
	}
	if !constraint.Check(version) {
		return errors.NewInvalidDomain("domain %q requires platform %q, running %s",
			info.ID, info.PlatformConstraint, r.cfg.PlatformVersion)
	}
	return nil
}

func (r *Registry) infosLocked() map[string]domains.DomainInfo {
	infos := make(map[string]domains.DomainInfo, len(r.byID))
	for id, reg := range r.byID {
		infos[id] = reg.info
	}
	return infos
}

// Route scores the request against every registered domain and returns the
// matches whose relevance meets their own confidence threshold, best first,
// at most maxDomains of them (<= 0 uses the configured default).
func (r *Registry) Route(requestText string, maxDomains int) []domains.DomainMatch {
	if maxDomains <= 0 {
		maxDomains = r.cfg.MaxDomains
	}

	r.mu.RLock()
	regs := make([]*registration, 0, len(r.order))
	for _, id := range r.order {
		regs = append(regs, r.byID[id])
	}
	r.mu.RUnlock()

	if len(regs) == 0 {
		return nil
	}

	scores := r.engine.Scores(requestText)

	var matches []domains.DomainMatch
	for _, reg := range regs {
		s, ok := scores[reg.info.ID]
		if !ok || s.Final < reg.info.ConfidenceThreshold {
			continue
		}
		reasons := []string{fmt.Sprintf("relevance %.3f (keyword %.3f, tfidf %.3f)",
			s.Final, s.Keyword, s.TFIDF)}
		if len(s.MatchedKeywords) > 0 {
			reasons = append(reasons, "matched keywords: "+strings.Join(s.MatchedKeywords, ", "))
		}
		matches = append(matches, domains.DomainMatch{
			DomainID:     reg.info.ID,
			Confidence:   s.Final,
			MatchReasons: reasons,
			Handler:      reg.handler,
			Info:         reg.info,
		})
	}

	// Stable sort keeps registration order between equal scores.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if len(matches) > maxDomains {
		matches = matches[:maxDomains]
	}

	r.logger.Debugw("Request routed",
		"matched", len(matches),
		"max_domains", maxDomains)
	return matches
}

// Process routes the request, serves cache-enabled matches from the result
// cache, dispatches the rest concurrently, records every outcome into the
// monitor, and returns the combined results. A request that matches nothing
// returns (nil, nil); the error is non-nil only when ctx was cancelled.
func (r *Registry) Process(ctx context.Context, requestText string, domainContext map[string]any, maxDomains int) ([]*domains.DomainResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	matches := r.Route(requestText, maxDomains)
	if len(matches) == 0 {
		r.logger.Infow("No matching domain for request",
			"request_id", requestID)
		return nil, nil
	}

	// The hash ignores domainContext on purpose: identical text hits the
	// cache regardless of context.
	hash := domains.RequestHash(requestText)

	var (
		results   []*domains.DomainResult
		uncached  []domains.DomainMatch
		cacheHits int
	)
	for _, match := range matches {
		if !match.Info.CacheEnabled {
			uncached = append(uncached, match)
			continue
		}
		if res, ok := r.cache.Get(ctx, match.DomainID, hash); ok {
			r.monitor.Record(match.DomainID, 0, res.Confidence, true)
			results = append(results, res)
			cacheHits++
			continue
		}
		uncached = append(uncached, match)
	}

	fresh, failures := r.processor.ProcessBatch(ctx, requestText, uncached, domainContext)

	cacheable := make(map[string]bool, len(uncached))
	for _, m := range uncached {
		cacheable[m.DomainID] = m.Info.CacheEnabled
	}
	for _, res := range fresh {
		if cacheable[res.DomainID] {
			if err := r.cache.Put(ctx, res.DomainID, hash, res); err != nil {
				r.logger.Warnw("Failed to cache result",
					"domain_id", res.DomainID,
					"error", err)
			}
		}
		r.monitor.Record(res.DomainID, res.ProcessingTime, res.Confidence, true)
	}
	for _, f := range failures {
		r.monitor.Record(f.DomainID, f.Elapsed, 0, false)
		r.logger.Warnw("Domain processing failed",
			"request_id", requestID,
			"domain_id", f.DomainID,
			"error", f.Err)
	}

	results = append(results, fresh...)
	durationMS := time.Since(start).Milliseconds()

	r.logger.Infow("Request processed",
		"request_id", requestID,
		"matched", len(matches),
		"succeeded", len(results),
		"failed", len(failures),
		"cached", cacheHits,
		"duration_ms", durationMS)

	r.mu.RLock()
	sink := r.eventSink
	r.mu.RUnlock()
	if sink != nil {
		sink(Event{
			RequestID:      requestID,
			RequestPreview: previewText(requestText),
			Matched:        len(matches),
			Succeeded:      len(results),
			Failed:         len(failures),
			CacheHits:      cacheHits,
			DurationMS:     durationMS,
		})
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// SetEventSink registers fn to receive a summary of every Process call.
// Pass nil to remove the sink.
func (r *Registry) SetEventSink(fn func(Event)) {
	r.mu.Lock()
	r.eventSink = fn
	r.mu.Unlock()
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:80]) + "..."
	}
	return text
}

// DomainStatus is one domain's entry in the Status report.
type DomainStatus struct {
	Name                string                  `json:"domain_name"`
	Capabilities        []string                `json:"capabilities"`
	ConfidenceThreshold float64                 `json:"confidence_threshold"`
	CacheEnabled        bool                    `json:"cache_enabled"`
	IsHealthy           bool                    `json:"is_healthy"`
	RegisteredAt        time.Time               `json:"registered_at"`
	Performance         domains.MetricsSnapshot `json:"performance"`
}

// Status is the registry_status report.
type Status struct {
	TotalDomains         int                     `json:"total_domains"`
	RoutingEngineTrained bool                    `json:"routing_engine_trained"`
	AutoDiscovery        bool                    `json:"auto_discovery"`
	DiscoveryPaths       []string                `json:"discovery_paths"`
	Domains              map[string]DomainStatus `json:"domains"`
}

// Status reports every domain's health and rolling performance. A handler
// whose Health errors or panics is reported unhealthy; the panic never
// propagates.
func (r *Registry) Status(ctx context.Context) Status {
	r.mu.RLock()
	regs := make([]*registration, 0, len(r.order))
	for _, id := range r.order {
		regs = append(regs, r.byID[id])
	}
	r.mu.RUnlock()

	st := Status{
		TotalDomains:         len(regs),
		RoutingEngineTrained: r.engine.Trained(),
		AutoDiscovery:        r.cfg.AutoDiscovery,
		DiscoveryPaths:       r.cfg.DiscoveryPaths,
		Domains:              make(map[string]DomainStatus, len(regs)),
	}
	for _, reg := range regs {
		st.Domains[reg.info.ID] = DomainStatus{
			Name:                reg.info.Name,
			Capabilities:        reg.info.Capabilities,
			ConfidenceThreshold: reg.info.ConfidenceThreshold,
			CacheEnabled:        reg.info.CacheEnabled,
			IsHealthy:           healthCheck(ctx, reg.handler),
			RegisteredAt:        reg.registeredAt,
			Performance:         reg.handler.Metrics().Snapshot(),
		}
	}
	return st
}

func healthCheck(ctx context.Context, h domains.Handler) (healthy bool) {
	defer func() {
		if recover() != nil {
			healthy = false
		}
	}()
	return h.Health(ctx) == nil
}

// Domains returns the registered domain records in registration order.
func (r *Registry) Domains() []domains.DomainInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domains.DomainInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.byID[id].info)
	}
	return infos
}

// Domain returns one registered domain's record.
func (r *Registry) Domain(id string) (domains.DomainInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byID[id]
	if !ok {
		return domains.DomainInfo{}, false
	}
	return reg.info, true
}

// Monitor exposes the performance monitor for hosts.
func (r *Registry) Monitor() *monitor.PerformanceMonitor {
	return r.monitor
}

// CacheStats reports the result cache's counters.
func (r *Registry) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// Close releases the cache backend.
func (r *Registry) Close() error {
	return r.cache.Close()
}
