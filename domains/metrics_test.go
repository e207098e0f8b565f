package domains_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerautomation/domainmcp/domains"
)

func TestMetricsRunningAverageMatchesMean(t *testing.T) {
	m := domains.NewHandlerMetrics()

	times := []float64{0.10, 0.30, 0.20, 0.45, 0.05}
	confidences := []float64{0.9, 0.7, 0.8, 0.6, 1.0}

	var timeSum, confSum float64
	for i := range times {
		m.Update(times[i], confidences[i], true)
		timeSum += times[i]
		confSum += confidences[i]
	}

	snap := m.Snapshot()
	n := float64(len(times))
	assert.InDelta(t, timeSum/n, snap.AvgProcessingTime, 1e-9,
		"running average should equal arithmetic mean of samples")
	assert.InDelta(t, confSum/n, snap.AvgConfidence, 1e-9)
	assert.Equal(t, int64(5), snap.TotalRequests)
	assert.Equal(t, int64(5), snap.SuccessfulRequests)
	assert.Equal(t, 1.0, snap.SuccessRate)
}

func TestMetricsFailuresCount(t *testing.T) {
	m := domains.NewHandlerMetrics()

	m.Update(0.2, 0.8, true)
	m.Update(1.5, 0.0, false)

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
	assert.InDelta(t, 0.5, snap.SuccessRate, 1e-9)
	// Failed invocations still move the averages
	assert.InDelta(t, 0.85, snap.AvgProcessingTime, 1e-9)
	assert.InDelta(t, 0.4, snap.AvgConfidence, 1e-9)
}

func TestMetricsZeroSnapshot(t *testing.T) {
	snap := domains.NewHandlerMetrics().Snapshot()

	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.AvgProcessingTime)
	assert.Zero(t, snap.SuccessRate, "success rate must be 0, not NaN, with no requests")
}

func TestMetricsConcurrentUpdates(t *testing.T) {
	m := domains.NewHandlerMetrics()

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Update(0.1, 0.5, true)
			}
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.Equal(t, int64(workers*perWorker), snap.TotalRequests)
	assert.InDelta(t, 0.1, snap.AvgProcessingTime, 1e-9)
	assert.InDelta(t, 0.5, snap.AvgConfidence, 1e-9)
}
