package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot holds host resource facts captured once at process start.
// A zero value for memory or disk means the fact could not be read.
type Snapshot struct {
	TotalMemoryMB   uint64
	AvailableDiskKB uint64
	CPUCount        int
	ProbedAt        time.Time
}

// Prober reads host resource facts. Readers are fields so unreadable-fact
// fallbacks stay testable without faking the host.
type Prober struct {
	logger *slog.Logger

	memTotal func(ctx context.Context) (uint64, error)
	diskFree func(ctx context.Context) (uint64, error)
	cpuCount func(ctx context.Context) (int, error)
}

func New(logger *slog.Logger) *Prober {
	return &Prober{
		logger: logger,
		memTotal: func(ctx context.Context) (uint64, error) {
			vmStat, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vmStat.Total, nil
		},
		diskFree: func(ctx context.Context) (uint64, error) {
			usage, err := disk.UsageWithContext(ctx, "/")
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
		cpuCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
	}
}

// Probe captures a resource snapshot. It never fails: an unreadable fact is
// logged and recorded as its conservative floor, so downstream tuning
// degrades to the safest tier instead of aborting the boot.
func (p *Prober) Probe(ctx context.Context) Snapshot {
	snapshot := Snapshot{ProbedAt: time.Now().UTC(), CPUCount: 1}

	if total, err := p.memTotal(ctx); err != nil {
		p.logger.Warn("total memory unknown, assuming smallest tier", "error", err)
	} else {
		snapshot.TotalMemoryMB = total / 1024 / 1024
	}

	if free, err := p.diskFree(ctx); err != nil {
		p.logger.Warn("available disk unknown", "error", err)
	} else {
		snapshot.AvailableDiskKB = free / 1024
	}

	if counts, err := p.cpuCount(ctx); err != nil || counts < 1 {
		p.logger.Warn("cpu count unknown, assuming single core", "error", err)
	} else {
		snapshot.CPUCount = counts
	}

	return snapshot
}
