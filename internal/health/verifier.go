package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// State is the verifier cycle state. Passed and Failed are terminal for a
// given cycle; every orchestrator invocation starts a fresh cycle at Idle.
type State string

const (
	StateIdle    State = "idle"
	StateProbing State = "probing"
	StatePassed  State = "passed"
	StateFailed  State = "failed"
)

// Policy holds the retry knobs. The observed entrypoint scripts disagreed on
// 3 retries / 2s backoff versus 5 retries / 15s timeout, so all three values
// stay configurable instead of hard-coded.
type Policy struct {
	MaxRetries   int
	Backoff      time.Duration
	ProbeTimeout time.Duration
}

// Result records a single probe attempt within a cycle.
type Result struct {
	Attempt   int
	Outcome   Outcome
	Timestamp time.Time
}

// CycleReport summarizes one verification cycle.
type CycleReport struct {
	CycleID string
	State   State
	Results []Result
}

// Outcome returns the outcome of the attempt that decided the cycle, or
// OutcomeFailed for an exhausted cycle.
func (r CycleReport) Outcome() Outcome {
	if len(r.Results) == 0 || r.State != StatePassed {
		return OutcomeFailed
	}
	return r.Results[len(r.Results)-1].Outcome
}

// Degraded reports whether the cycle passed on the fallback check only.
func (r CycleReport) Degraded() bool {
	return r.State == StatePassed && r.Outcome() == OutcomePortOpenOnly
}

// Verifier runs liveness verification cycles against the managed process.
type Verifier struct {
	strategies []ProbeStrategy
	policy     Policy
	logger     *slog.Logger

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewVerifier(strategies []ProbeStrategy, policy Policy, logger *slog.Logger) *Verifier {
	return &Verifier{
		strategies: strategies,
		policy:     policy,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Run executes one verification cycle: up to MaxRetries attempts, each trying
// every strategy in order under the per-attempt timeout, with a fixed backoff
// between failed attempts. Cancellation is honored at attempt boundaries and
// during backoff.
func (v *Verifier) Run(ctx context.Context) CycleReport {
	report := CycleReport{CycleID: uuid.NewString(), State: StateIdle}

	for attempt := 1; attempt <= v.policy.MaxRetries; attempt++ {
		report.State = StateProbing

		outcome := v.runAttempt(ctx, attempt)
		report.Results = append(report.Results, Result{
			Attempt:   attempt,
			Outcome:   outcome,
			Timestamp: time.Now().UTC(),
		})

		if outcome != OutcomeFailed {
			report.State = StatePassed
			v.logger.Info("liveness cycle passed",
				"cycle_id", report.CycleID,
				"attempt", attempt,
				"outcome", string(outcome),
			)
			return report
		}

		if attempt < v.policy.MaxRetries {
			v.logger.Warn("liveness attempt failed, backing off",
				"cycle_id", report.CycleID,
				"attempt", attempt,
				"backoff", v.policy.Backoff.String(),
			)
			if err := v.sleep(ctx, v.policy.Backoff); err != nil {
				report.State = StateFailed
				return report
			}
		}
	}

	report.State = StateFailed
	v.logger.Error("liveness cycle failed, retries exhausted",
		"cycle_id", report.CycleID,
		"attempts", v.policy.MaxRetries,
	)
	return report
}

// runAttempt tries each strategy in order. The first success decides the
// attempt outcome; the per-attempt timeout bounds all strategies together so
// a hanging endpoint cannot stall the cycle.
func (v *Verifier) runAttempt(ctx context.Context, attempt int) Outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, v.policy.ProbeTimeout)
	defer cancel()

	for _, strategy := range v.strategies {
		outcome, err := strategy.Probe(attemptCtx)
		if err == nil {
			return outcome
		}
		v.logger.Debug("probe strategy failed",
			"attempt", attempt,
			"strategy", strategy.Name(),
			"error", err,
		)
	}

	return OutcomeFailed
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
