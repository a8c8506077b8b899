package telemetry

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
)

const perfStatsInterval = time.Second * 30

var meter = otel.Meter("go.perf_stats")

type perfSample struct {
	CpuPercent  float64
	AllocatedMb int64
	// resident set size of the whole process, -1 when unavailable
	RssMb      int64
	Goroutines int64
}

func samplePerfStats(ctx context.Context, self *process.Process) perfSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := perfSample{
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		RssMb:       -1,
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	cpuUsage, err := cpu.PercentWithContext(ctx, 0, false)
	if err == nil && len(cpuUsage) > 0 {
		sample.CpuPercent = cpuUsage[0]
	} else if err != nil {
		slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
	}

	if self != nil {
		mem, err := self.MemoryInfoWithContext(ctx)
		if err == nil {
			sample.RssMb = int64(mem.RSS / 1_000_000)
		} else {
			slog.DebugContext(ctx, "failed to read process memory", "err", err)
		}
	}
	return sample
}

// InstrumentPerfStats records process gauges every 30 seconds until ctx is done.
func InstrumentPerfStats(ctx context.Context) {
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	memoryGauge, _ := meter.Int64Gauge("allocated_mb")
	rssGauge, _ := meter.Int64Gauge("rss_mb")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.DebugContext(ctx, "process stats unavailable", "err", err)
		self = nil
	}

	go func() {
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample := samplePerfStats(ctx, self)
				cpuGauge.Record(ctx, sample.CpuPercent)
				memoryGauge.Record(ctx, sample.AllocatedMb)
				if sample.RssMb >= 0 {
					rssGauge.Record(ctx, sample.RssMb)
				}
				goroutineGauge.Record(ctx, sample.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
