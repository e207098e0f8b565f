package monitor_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerautomation/domainmcp/monitor"
)

func TestRecordAndDomainStatistics(t *testing.T) {
	m := monitor.New(monitor.Config{}, nil)

	m.Record("insurance_mcp", 0.10, 0.9, true)
	m.Record("insurance_mcp", 0.30, 0.7, true)
	m.Record("insurance_mcp", 0.20, 0.8, false)

	stats, ok := m.DomainStatistics("insurance_mcp")
	require.True(t, ok)

	assert.Equal(t, int64(3), stats.RequestCount)
	assert.Equal(t, int64(1), stats.ErrorCount)
	assert.InDelta(t, 1.0/3.0, stats.ErrorRate, 1e-9)
	assert.InDelta(t, 0.20, stats.AvgProcessingTime, 1e-9)
	assert.InDelta(t, 0.30, stats.MaxProcessingTime, 1e-9)
	assert.InDelta(t, 0.10, stats.MinProcessingTime, 1e-9)
	assert.InDelta(t, 0.80, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 3, stats.WindowSamples)
}

func TestDomainStatisticsUnknownDomain(t *testing.T) {
	m := monitor.New(monitor.Config{}, nil)

	_, ok := m.DomainStatistics("never_seen")
	assert.False(t, ok)
}

func TestWindowBoundsSamplesButNotCounts(t *testing.T) {
	m := monitor.New(monitor.Config{WindowSize: 4}, nil)

	// Fill beyond the window; old samples fall out, counters keep going.
	for i := 0; i < 10; i++ {
		m.Record("insurance_mcp", float64(i), 0.5, true)
	}

	stats, ok := m.DomainStatistics("insurance_mcp")
	require.True(t, ok)

	assert.Equal(t, int64(10), stats.RequestCount, "request count is all-time")
	assert.Equal(t, 4, stats.WindowSamples, "window holds only the most recent samples")
	// Window now holds 6,7,8,9
	assert.InDelta(t, 7.5, stats.AvgProcessingTime, 1e-9)
	assert.InDelta(t, 9.0, stats.MaxProcessingTime, 1e-9)
	assert.InDelta(t, 6.0, stats.MinProcessingTime, 1e-9)
}

func TestOverallStatistics(t *testing.T) {
	m := monitor.New(monitor.Config{}, nil)

	m.Record("insurance_mcp", 0.1, 0.9, true)
	m.Record("insurance_mcp", 0.2, 0.8, false)
	m.Record("tech_support_mcp", 0.4, 0.6, true)

	overall := m.OverallStatistics()

	assert.Equal(t, int64(3), overall.TotalRequests)
	assert.Equal(t, int64(1), overall.TotalErrors)
	assert.InDelta(t, 1.0/3.0, overall.ErrorRate, 1e-9)
	assert.Equal(t, 2, overall.ActiveDomains)
	assert.Contains(t, overall.Domains, "insurance_mcp")
	assert.Contains(t, overall.Domains, "tech_support_mcp")
}

func TestOverallStatisticsEmpty(t *testing.T) {
	m := monitor.New(monitor.Config{}, nil)

	overall := m.OverallStatistics()
	assert.Zero(t, overall.TotalRequests)
	assert.Zero(t, overall.ErrorRate)
	assert.Empty(t, overall.Domains)
}

func TestPrometheusCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitor.New(monitor.Config{Registerer: reg}, nil)

	m.Record("insurance_mcp", 0.1, 0.9, true)
	m.Record("insurance_mcp", 0.2, 0.8, true)
	m.Record("insurance_mcp", 1.5, 0.0, false)

	families, err := reg.Gather()
	require.NoError(t, err)

	var successCount, errorCount float64
	sawHistogram := false
	for _, fam := range families {
		switch fam.GetName() {
		case "domainmcp_requests_total":
			for _, metric := range fam.GetMetric() {
				outcome := ""
				for _, label := range metric.GetLabel() {
					if label.GetName() == "outcome" {
						outcome = label.GetValue()
					}
				}
				switch outcome {
				case "success":
					successCount = metric.GetCounter().GetValue()
				case "error":
					errorCount = metric.GetCounter().GetValue()
				}
			}
		case "domainmcp_processing_seconds":
			sawHistogram = true
			for _, metric := range fam.GetMetric() {
				assert.Equal(t, uint64(3), metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, successCount)
	assert.Equal(t, 1.0, errorCount)
	assert.True(t, sawHistogram)
}

func TestSystemMetrics(t *testing.T) {
	sys, err := monitor.CollectSystemMetrics()
	require.NoError(t, err)

	assert.Greater(t, sys.TotalMemoryBytes, uint64(0))
	assert.Greater(t, sys.Goroutines, 0)
}
