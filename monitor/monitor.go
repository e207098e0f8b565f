// Package monitor records per-domain request outcomes and serves the
// statistics behind registry status, the stats API, and Prometheus.
package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultWindowSize bounds the per-domain sample window. Counters are
// all-time; windowed statistics (averages, extremes) cover the most
// recent samples only.
const DefaultWindowSize = 512

// Config controls sample retention and metric export.
type Config struct {
	// WindowSize is the per-domain ring capacity; <= 0 uses the default.
	WindowSize int
	// Registerer receives the Prometheus collectors. nil disables export,
	// which tests use to avoid cross-registrations.
	Registerer prometheus.Registerer
}

// domainSeries holds one domain's counters and sample windows.
type domainSeries struct {
	requestCount int64
	errorCount   int64

	times       *ring
	confidences *ring
	successes   *ring // 1 success, 0 failure
}

// PerformanceMonitor aggregates request outcomes per domain.
type PerformanceMonitor struct {
	mu         sync.RWMutex
	domains    map[string]*domainSeries
	windowSize int
	logger     *zap.SugaredLogger

	requestsTotal     *prometheus.CounterVec
	processingSeconds *prometheus.HistogramVec
}

// New creates a monitor. A nil logger is replaced with a nop.
func New(cfg Config, logger *zap.SugaredLogger) *PerformanceMonitor {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	m := &PerformanceMonitor{
		domains:    make(map[string]*domainSeries),
		windowSize: cfg.WindowSize,
		logger:     logger,
	}

	if cfg.Registerer != nil {
		m.requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "domainmcp",
			Name:      "requests_total",
			Help:      "Requests handled per domain by outcome.",
		}, []string{"domain_id", "outcome"})
		m.processingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "domainmcp",
			Name:      "processing_seconds",
			Help:      "Handler processing time in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"domain_id"})
		cfg.Registerer.MustRegister(m.requestsTotal, m.processingSeconds)
	}

	return m
}

// Record stores one request outcome. processingTime is in seconds; cache
// hits are recorded with zero processing time.
func (m *PerformanceMonitor) Record(domainID string, processingTime, confidence float64, success bool) {
	m.mu.Lock()
	series, ok := m.domains[domainID]
	if !ok {
		series = &domainSeries{
			times:       newRing(m.windowSize),
			confidences: newRing(m.windowSize),
			successes:   newRing(m.windowSize),
		}
		m.domains[domainID] = series
	}

	series.requestCount++
	if !success {
		series.errorCount++
	}
	series.times.push(processingTime)
	series.confidences.push(confidence)
	if success {
		series.successes.push(1)
	} else {
		series.successes.push(0)
	}
	m.mu.Unlock()

	if m.requestsTotal != nil {
		outcome := "success"
		if !success {
			outcome = "error"
		}
		m.requestsTotal.WithLabelValues(domainID, outcome).Inc()
		m.processingSeconds.WithLabelValues(domainID).Observe(processingTime)
	}
}

// DomainStats summarizes one domain. Counts and error rate are all-time;
// the remaining statistics cover the current sample window.
type DomainStats struct {
	DomainID          string  `json:"domain_id"`
	RequestCount      int64   `json:"request_count"`
	ErrorCount        int64   `json:"error_count"`
	ErrorRate         float64 `json:"error_rate"`
	AvgProcessingTime float64 `json:"avg_processing_time"`
	MaxProcessingTime float64 `json:"max_processing_time"`
	MinProcessingTime float64 `json:"min_processing_time"`
	AvgConfidence     float64 `json:"avg_confidence"`
	SuccessRate       float64 `json:"success_rate"`
	WindowSamples     int     `json:"window_samples"`
}

// DomainStatistics returns the summary for one domain, reporting false
// when it has no recorded requests.
func (m *PerformanceMonitor) DomainStatistics(domainID string) (DomainStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.domains[domainID]
	if !ok {
		return DomainStats{}, false
	}
	return m.summarizeLocked(domainID, series), true
}

// OverallStats aggregates every domain plus process-wide totals.
type OverallStats struct {
	TotalRequests int64                  `json:"total_requests"`
	TotalErrors   int64                  `json:"total_errors"`
	ErrorRate     float64                `json:"error_rate"`
	ActiveDomains int                    `json:"active_domains"`
	Domains       map[string]DomainStats `json:"domains"`
}

// OverallStatistics returns the aggregate view across all domains.
func (m *PerformanceMonitor) OverallStatistics() OverallStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := OverallStats{
		ActiveDomains: len(m.domains),
		Domains:       make(map[string]DomainStats, len(m.domains)),
	}
	for id, series := range m.domains {
		stats := m.summarizeLocked(id, series)
		overall.Domains[id] = stats
		overall.TotalRequests += stats.RequestCount
		overall.TotalErrors += stats.ErrorCount
	}
	if overall.TotalRequests > 0 {
		overall.ErrorRate = float64(overall.TotalErrors) / float64(overall.TotalRequests)
	}
	return overall
}

func (m *PerformanceMonitor) summarizeLocked(domainID string, series *domainSeries) DomainStats {
	avg, max, min := series.times.summarize()

	stats := DomainStats{
		DomainID:          domainID,
		RequestCount:      series.requestCount,
		ErrorCount:        series.errorCount,
		AvgProcessingTime: avg,
		MaxProcessingTime: max,
		MinProcessingTime: min,
		AvgConfidence:     series.confidences.mean(),
		SuccessRate:       series.successes.mean(),
		WindowSamples:     series.times.len(),
	}
	if series.requestCount > 0 {
		stats.ErrorRate = float64(series.errorCount) / float64(series.requestCount)
	}
	return stats
}
