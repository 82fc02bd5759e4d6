package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a bootstrap lifecycle transition.
type Type string

const (
	TypeStarted   Type = "bootstrap.started"
	TypeReady     Type = "bootstrap.ready"
	TypeDegraded  Type = "bootstrap.degraded"
	TypeUnhealthy Type = "bootstrap.unhealthy"
	TypeStopped   Type = "bootstrap.stopped"
)

// Event is one lifecycle transition of the bootstrap or its workload.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// New builds an event with a fresh ID and UTC timestamp.
func New(eventType Type, fields map[string]interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}
}

// Publisher delivers lifecycle events to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close(ctx context.Context) error
}

// NopPublisher discards events. Used when no sink is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close(context.Context) error { return nil }

// Fanout delivers each event to every configured sink. A failing sink does
// not block the others; the last error is returned.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	var lastErr error
	for _, publisher := range f {
		if err := publisher.Publish(ctx, event); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (f Fanout) Close(ctx context.Context) error {
	var lastErr error
	for _, publisher := range f {
		if err := publisher.Close(ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
