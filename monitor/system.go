package monitor

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/powerautomation/domainmcp/errors"
)

// SystemMetrics reports host and process memory state for status payloads.
type SystemMetrics struct {
	TotalMemoryBytes     uint64  `json:"total_memory_bytes"`     // Host physical memory
	AvailableMemoryBytes uint64  `json:"available_memory_bytes"` // Memory available without swapping
	UsedPercent          float64 `json:"used_percent"`           // Host memory utilization
	ProcessAllocBytes    uint64  `json:"process_alloc_bytes"`    // Go heap currently in use
	Goroutines           int     `json:"goroutines"`
}

// CollectSystemMetrics reads current host memory via gopsutil plus Go
// runtime counters.
func CollectSystemMetrics() (*SystemMetrics, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read system memory")
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return &SystemMetrics{
		TotalMemoryBytes:     v.Total,
		AvailableMemoryBytes: v.Available,
		UsedPercent:          v.UsedPercent,
		ProcessAllocBytes:    ms.Alloc,
		Goroutines:           runtime.NumGoroutine(),
	}, nil
}
