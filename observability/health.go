// Package observability aggregates process self-stats for the health
// endpoint and periodic logging.
package observability

import (
	"runtime"
	"sync"
	"time"
)

type HealthStats struct {
	RSSMb       float64   `json:"rss_mb"`
	CPUPercent  float64   `json:"cpu_percent"`
	AllocMemMb  uint64    `json:"alloc_mem_mb"`
	NumGC       uint32    `json:"num_gc"`
	Goroutines  int       `json:"goroutines"`
	CollectedAt time.Time `json:"collected_at"`
}

// HealthTracker holds the latest snapshot; the telemetry worker writes, the
// health endpoint reads.
type HealthTracker struct {
	mu     sync.RWMutex
	latest HealthStats
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{}
}

func (h *HealthTracker) Update(rssMb, cpuPercent float64) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = HealthStats{
		RSSMb:       rssMb,
		CPUPercent:  cpuPercent,
		AllocMemMb:  mem.Alloc / 1024 / 1024,
		NumGC:       mem.NumGC,
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now().UTC(),
	}
}

func (h *HealthTracker) Latest() HealthStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}
