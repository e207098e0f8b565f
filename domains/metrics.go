package domains

import "sync"

// HandlerMetrics tracks per-handler rolling performance counters.
// Averages are maintained incrementally so no sample history is kept.
type HandlerMetrics struct {
	mu sync.Mutex

	totalRequests      int64
	successfulRequests int64
	avgProcessingTime  float64
	avgConfidence      float64
}

// NewHandlerMetrics returns zeroed metrics ready for use.
func NewHandlerMetrics() *HandlerMetrics {
	return &HandlerMetrics{}
}

// Update records one invocation. processingTime is in seconds. Both
// averages advance by new_avg = old_avg*(n-1)/n + value/n with n the
// updated request count, so they equal the arithmetic mean of all samples.
// Failed invocations still count toward the averages.
func (m *HandlerMetrics) Update(processingTime, confidence float64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if success {
		m.successfulRequests++
	}

	n := float64(m.totalRequests)
	m.avgProcessingTime = m.avgProcessingTime*(n-1)/n + processingTime/n
	m.avgConfidence = m.avgConfidence*(n-1)/n + confidence/n
}

// MetricsSnapshot is a point-in-time copy of handler metrics, safe to
// serialize into status payloads.
type MetricsSnapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	AvgProcessingTime  float64 `json:"avg_processing_time"`
	AvgConfidence      float64 `json:"avg_confidence"`
	SuccessRate        float64 `json:"success_rate"`
}

// Snapshot returns a consistent copy of the current counters.
func (m *HandlerMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		TotalRequests:      m.totalRequests,
		SuccessfulRequests: m.successfulRequests,
		AvgProcessingTime:  m.avgProcessingTime,
		AvgConfidence:      m.avgConfidence,
	}
	if m.totalRequests > 0 {
		snap.SuccessRate = float64(m.successfulRequests) / float64(m.totalRequests)
	}
	return snap
}
