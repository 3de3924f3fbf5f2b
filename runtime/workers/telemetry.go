package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"dm-lab/observability"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker samples the process's own RSS and CPU on an interval and
// feeds the health tracker.
type TelemetryWorker struct {
	log      *slog.Logger
	tracker  *observability.HealthTracker
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, tracker *observability.HealthTracker,
	interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, tracker: tracker, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case <-ticker.C:
			rssMb := 0.0
			if mem, err := p.MemoryInfo(); err == nil {
				rssMb = float64(mem.RSS) / 1024 / 1024
			}
			cpu, _ := p.Percent(0)
			w.tracker.Update(rssMb, cpu)
			w.log.Debug("Self stats", "rss_mb", rssMb, "cpu_percent", cpu)
		}
	}
}
