package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dreschagin/container-bootstrap/internal/health"
	"github.com/dreschagin/container-bootstrap/pkg/config"
	"github.com/dreschagin/container-bootstrap/pkg/logger"
)

// healthcheck runs one liveness verification cycle against the managed
// process and reports it through the exit code. The orchestrator invokes it
// on its own interval; every invocation is a fresh cycle.
//
// Exit codes: 0 the cycle passed (including the degraded port-open-only
// outcome), 1 all retries were exhausted, 2 configuration error.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := cfg.Health.HealthTarget()
	verifier := health.NewVerifier(
		[]health.ProbeStrategy{
			health.NewHTTPProbe(target, cfg.Health.Path),
			health.NewTCPProbe(target),
		},
		health.Policy{
			MaxRetries:   cfg.Health.MaxRetries,
			Backoff:      cfg.Health.Backoff,
			ProbeTimeout: cfg.Health.ProbeTimeout,
		},
		log,
	)

	report := verifier.Run(ctx)
	if report.State != health.StatePassed {
		return 1
	}

	if report.Degraded() {
		log.Warn("liveness accepted on port reachability only",
			"cycle_id", report.CycleID,
			"target", target,
		)
	}

	return 0
}
