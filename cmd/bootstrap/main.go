package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/container-bootstrap/internal/events"
	cloudwatchevents "github.com/dreschagin/container-bootstrap/internal/events/cloudwatch"
	natsevents "github.com/dreschagin/container-bootstrap/internal/events/nats"
	"github.com/dreschagin/container-bootstrap/internal/health"
	"github.com/dreschagin/container-bootstrap/internal/launcher"
	"github.com/dreschagin/container-bootstrap/internal/probe"
	"github.com/dreschagin/container-bootstrap/internal/ratelimit"
	"github.com/dreschagin/container-bootstrap/internal/status"
	"github.com/dreschagin/container-bootstrap/internal/tuning"
	"github.com/dreschagin/container-bootstrap/pkg/config"
	"github.com/dreschagin/container-bootstrap/pkg/logger"
)

// Bootstrap exit codes. The managed process's own exit code is propagated
// once it has been launched.
const (
	exitConfig   = 1
	exitLogSetup = 2
	exitLaunch   = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return exitConfig
	}

	log := logger.New(cfg.LogLevel)

	argv := os.Args[1:]
	if len(argv) == 0 {
		log.Error("no managed command given", "usage", "bootstrap <command> [args...]")
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Capture host facts once; everything downstream works off this snapshot.
	snapshot := probe.New(log).Probe(ctx)
	profile := tuning.Select(snapshot, cfg.Runtime.ActiveProfile, cfg.Runtime.LogDir)

	log.Info("runtime profile selected",
		"tier", string(profile.Tier),
		"heap_min_mb", profile.HeapMinMB,
		"heap_max_mb", profile.HeapMaxMB,
		"active_profile", profile.ActiveProfile,
		"total_memory_mb", snapshot.TotalMemoryMB,
		"cpu_cores", snapshot.CPUCount,
	)

	if err := tuning.EnsureLogFile(profile.LogPath); err != nil {
		log.Error("log setup failed, refusing to start workload", "error", err)
		return exitLogSetup
	}

	publisher, err := buildPublisher(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize event sinks", "error", err)
		return exitConfig
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = publisher.Close(closeCtx)
	}()

	registry := prometheus.NewRegistry()
	metrics := status.NewMetrics(registry)
	metrics.RecordBoot(snapshot, profile)

	limiter := ratelimit.New(cfg.Status.RateLimitRPS, cfg.Status.RateLimitBurst)
	statusServer := status.NewServer(cfg.Status.Port, registry, metrics, limiter)

	go func() {
		log.Info("status server started", "port", cfg.Status.Port)
		if serveErr := statusServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("status server failed", "error", serveErr)
		}
	}()

	publishEvent(ctx, publisher, log, events.New(events.TypeStarted, map[string]interface{}{
		"tier":            string(profile.Tier),
		"heap_max_mb":     profile.HeapMaxMB,
		"active_profile":  profile.ActiveProfile,
		"total_memory_mb": snapshot.TotalMemoryMB,
	}))

	exitCh := make(chan managedExit, 1)
	go func() {
		code, runErr := launcher.New(log).Run(ctx, argv, profile)
		exitCh <- managedExit{code: code, err: runErr}
	}()

	go verifyStartup(ctx, cfg, log, metrics, statusServer, publisher)

	result := <-exitCh
	if result.err != nil {
		log.Error("failed to launch managed process", "error", result.err)
		return exitLaunch
	}

	log.Info("managed process exited", "code", result.code)
	publishEvent(context.Background(), publisher, log, events.New(events.TypeStopped, map[string]interface{}{
		"exit_code": result.code,
	}))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := statusServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown status server", "error", err)
	}

	return result.code
}

type managedExit struct {
	code int
	err  error
}

// verifyStartup runs the initial liveness cycle after the grace period and
// reports the result on /readyz, in metrics and as a lifecycle event. A
// failed startup verification never kills the workload; periodic orchestrator
// healthchecks own that decision.
func verifyStartup(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	metrics *status.Metrics,
	statusServer *status.Server,
	publisher events.Publisher,
) {
	select {
	case <-time.After(cfg.Health.StartGrace):
	case <-ctx.Done():
		return
	}

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

	for _, result := range report.Results {
		metrics.ProbeAttemptsTotal.WithLabelValues(string(result.Outcome)).Inc()
	}
	metrics.VerificationCycles.WithLabelValues(string(report.State)).Inc()

	fields := map[string]interface{}{
		"cycle_id": report.CycleID,
		"attempts": len(report.Results),
		"outcome":  string(report.Outcome()),
	}

	switch {
	case report.State == health.StatePassed && report.Degraded():
		statusServer.SetReady(true)
		publishEvent(ctx, publisher, log, events.New(events.TypeDegraded, fields))
	case report.State == health.StatePassed:
		statusServer.SetReady(true)
		publishEvent(ctx, publisher, log, events.New(events.TypeReady, fields))
	default:
		publishEvent(ctx, publisher, log, events.New(events.TypeUnhealthy, fields))
	}
}

// buildPublisher wires the configured lifecycle event sinks.
func buildPublisher(ctx context.Context, cfg *config.Config, log *slog.Logger) (events.Publisher, error) {
	sinks := events.Fanout{}

	if cfg.Events.NATSURL != "" {
		natsPublisher, err := natsevents.NewPublisher(cfg.Events.NATSURL, cfg.Events.NATSSubject, log)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, natsPublisher)
	}

	if cfg.Events.CloudWatch.Enabled {
		cwPublisher, err := cloudwatchevents.NewPublisher(ctx, cloudwatchevents.Config{
			LogGroup:        cfg.Events.CloudWatch.LogGroup,
			LogStream:       cfg.Events.CloudWatch.LogStream,
			Region:          cfg.Events.CloudWatch.Region,
			Endpoint:        cfg.Events.CloudWatch.Endpoint,
			AccessKeyID:     cfg.Events.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.Events.CloudWatch.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, cwPublisher)
	}

	if len(sinks) == 0 {
		return events.NopPublisher{}, nil
	}

	return sinks, nil
}

func publishEvent(ctx context.Context, publisher events.Publisher, log *slog.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish lifecycle event", "type", string(event.Type), "error", err)
	}
}
