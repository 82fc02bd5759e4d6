package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/container-bootstrap/internal/probe"
	"github.com/dreschagin/container-bootstrap/internal/tuning"
)

// Metrics bundles prometheus collectors exposed by the supervisor.
type Metrics struct {
	ProbeAttemptsTotal *prometheus.CounterVec
	VerificationCycles *prometheus.CounterVec
	RateLimitDropped   prometheus.Counter
	HostMemoryMB       prometheus.Gauge
	HostCPUCores       prometheus.Gauge
	HostDiskFreeKB     prometheus.Gauge
	HeapMaxMB          prometheus.Gauge
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ProbeAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bootstrap_probe_attempts_total",
			Help: "Total number of liveness probe attempts by outcome.",
		}, []string{"outcome"}),
		VerificationCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bootstrap_verification_cycles_total",
			Help: "Total number of liveness verification cycles by terminal state.",
		}, []string{"state"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bootstrap_status_ratelimit_dropped_total",
			Help: "Total number of status requests dropped by rate limiter.",
		}),
		HostMemoryMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bootstrap_host_memory_mb",
			Help: "Total host memory in MB as probed at boot (0 if unknown).",
		}),
		HostCPUCores: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bootstrap_host_cpu_cores",
			Help: "Logical CPU cores as probed at boot.",
		}),
		HostDiskFreeKB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bootstrap_host_disk_free_kb",
			Help: "Free root filesystem space in KB as probed at boot.",
		}),
		HeapMaxMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bootstrap_heap_max_mb",
			Help: "Derived maximum heap size handed to the managed process.",
		}),
	}

	registry.MustRegister(
		m.ProbeAttemptsTotal,
		m.VerificationCycles,
		m.RateLimitDropped,
		m.HostMemoryMB,
		m.HostCPUCores,
		m.HostDiskFreeKB,
		m.HeapMaxMB,
	)

	return m
}

// RecordBoot publishes the probed facts and derived tuning as gauges.
func (m *Metrics) RecordBoot(snapshot probe.Snapshot, profile tuning.Profile) {
	m.HostMemoryMB.Set(float64(snapshot.TotalMemoryMB))
	m.HostCPUCores.Set(float64(snapshot.CPUCount))
	m.HostDiskFreeKB.Set(float64(snapshot.AvailableDiskKB))
	m.HeapMaxMB.Set(float64(profile.HeapMaxMB))
}
