package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dreschagin/container-bootstrap/internal/events"
)

// Publisher delivers lifecycle events to a NATS JetStream subject.
type Publisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to NATS with reconnect handling.
func NewPublisher(natsURL, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get jetstream context: %w", err)
	}

	logger.Info("connected to nats", "url", natsURL, "subject", subject)

	return &Publisher{
		nc:      nc,
		js:      js,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends an event to the configured subject. Publishing is async;
// the bootstrap must never stall behind its event sink.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := p.js.PublishAsync(p.subject, data); err != nil {
		p.logger.Error("failed to publish event",
			"subject", p.subject,
			"type", string(event.Type),
			"error", err,
		)
		return fmt.Errorf("publish event: %w", err)
	}

	p.logger.Debug("event published",
		"subject", p.subject,
		"type", string(event.Type),
		"size", len(data),
	)

	return nil
}

// Close drains in-flight publishes and closes the connection.
func (p *Publisher) Close(ctx context.Context) error {
	if p.nc == nil {
		return nil
	}

	select {
	case <-p.js.PublishAsyncComplete():
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}

	p.logger.Info("closing nats connection")
	p.nc.Close()
	return nil
}
