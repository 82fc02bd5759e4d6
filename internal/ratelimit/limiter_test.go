package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMiddlewareDropsOverBurst(t *testing.T) {
	limiter := New(1, 2)
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_dropped_total"})

	handler := limiter.Middleware(dropped, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s within burst", statuses[:2])
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Fatalf("fourth request = %d, want 429", statuses[3])
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "192.168.1.5, 10.0.0.1")

	if got := clientIP(req); got != "192.168.1.5" {
		t.Fatalf("clientIP() = %q, want %q", got, "192.168.1.5")
	}
}
