package probe

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func newTestProber() *Prober {
	return New(slog.New(slog.DiscardHandler))
}

func TestProbeReadsFacts(t *testing.T) {
	p := newTestProber()
	p.memTotal = func(context.Context) (uint64, error) { return 8 * 1024 * 1024 * 1024, nil }
	p.diskFree = func(context.Context) (uint64, error) { return 512 * 1024 * 1024, nil }
	p.cpuCount = func(context.Context) (int, error) { return 4, nil }

	snapshot := p.Probe(context.Background())

	if snapshot.TotalMemoryMB != 8192 {
		t.Errorf("TotalMemoryMB = %d, want 8192", snapshot.TotalMemoryMB)
	}
	if snapshot.AvailableDiskKB != 512*1024 {
		t.Errorf("AvailableDiskKB = %d, want %d", snapshot.AvailableDiskKB, 512*1024)
	}
	if snapshot.CPUCount != 4 {
		t.Errorf("CPUCount = %d, want 4", snapshot.CPUCount)
	}
	if snapshot.ProbedAt.IsZero() {
		t.Error("ProbedAt should be set")
	}
}

func TestProbeDegradesOnUnreadableFacts(t *testing.T) {
	readErr := errors.New("not available in this container")

	p := newTestProber()
	p.memTotal = func(context.Context) (uint64, error) { return 0, readErr }
	p.diskFree = func(context.Context) (uint64, error) { return 0, readErr }
	p.cpuCount = func(context.Context) (int, error) { return 0, readErr }

	snapshot := p.Probe(context.Background())

	if snapshot.TotalMemoryMB != 0 {
		t.Errorf("TotalMemoryMB = %d, want 0 (unknown)", snapshot.TotalMemoryMB)
	}
	if snapshot.AvailableDiskKB != 0 {
		t.Errorf("AvailableDiskKB = %d, want 0 (unknown)", snapshot.AvailableDiskKB)
	}
	if snapshot.CPUCount != 1 {
		t.Errorf("CPUCount = %d, want floor 1", snapshot.CPUCount)
	}
}

func TestProbeAgainstHost(t *testing.T) {
	snapshot := newTestProber().Probe(context.Background())

	if snapshot.CPUCount < 1 {
		t.Errorf("CPUCount = %d, want >= 1", snapshot.CPUCount)
	}
}
