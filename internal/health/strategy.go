package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
)

// Outcome classifies a single probe attempt.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
	// OutcomePortOpenOnly is a degraded-confidence success: the HTTP check
	// failed but the port accepts connections.
	OutcomePortOpenOnly Outcome = "port_open_only"
)

// ProbeStrategy is one way of checking the managed process. Strategies are
// tried in order within a single attempt, so adding or removing one is a
// data change in the verifier's strategy list.
type ProbeStrategy interface {
	Name() string
	// Probe returns the outcome this strategy vouches for on success.
	Probe(ctx context.Context) (Outcome, error)
}

// HTTPProbe checks the full health endpoint.
type HTTPProbe struct {
	URL    string
	Client *http.Client
}

func NewHTTPProbe(target, path string) *HTTPProbe {
	return &HTTPProbe{
		URL:    "http://" + target + path,
		Client: &http.Client{},
	}
}

func (p *HTTPProbe) Name() string { return "http" }

func (p *HTTPProbe) Probe(ctx context.Context) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("build health request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OutcomeFailed, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}

	return OutcomePassed, nil
}

// TCPProbe is the lower-fidelity fallback: a reachable port is accepted as a
// weaker liveness signal when the HTTP check fails.
type TCPProbe struct {
	Target string
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewTCPProbe(target string) *TCPProbe {
	dialer := &net.Dialer{}
	return &TCPProbe{Target: target, dial: dialer.DialContext}
}

func (p *TCPProbe) Name() string { return "tcp" }

func (p *TCPProbe) Probe(ctx context.Context) (Outcome, error) {
	conn, err := p.dial(ctx, "tcp", p.Target)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("dial %s: %w", p.Target, err)
	}
	_ = conn.Close()

	return OutcomePortOpenOnly, nil
}
