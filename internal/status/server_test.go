package status

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/container-bootstrap/internal/probe"
	"github.com/dreschagin/container-bootstrap/internal/ratelimit"
	"github.com/dreschagin/container-bootstrap/internal/tuning"
)

func newTestServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	return NewServer("0", registry, metrics, ratelimit.New(100, 100)), metrics
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "127.0.0.1:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAlwaysOK(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := get(t, s.Handler(), "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("/healthz = %d, want 200", rec.Code)
	}
}

func TestReadyzFlipsWithVerification(t *testing.T) {
	s, _ := newTestServer(t)

	if rec := get(t, s.Handler(), "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz before verification = %d, want 503", rec.Code)
	}

	s.SetReady(true)
	if rec := get(t, s.Handler(), "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("/readyz after verification = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpointExposesBootGauges(t *testing.T) {
	s, metrics := newTestServer(t)

	snapshot := probe.Snapshot{TotalMemoryMB: 8192, CPUCount: 4, AvailableDiskKB: 1024}
	metrics.RecordBoot(snapshot, tuning.Select(snapshot, "default", "/app/logs"))

	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"bootstrap_host_memory_mb 8192",
		"bootstrap_host_cpu_cores 4",
		"bootstrap_heap_max_mb 2048",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
