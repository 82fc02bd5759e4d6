package events

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	published []Event
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.published = append(p.published, event)
	return p.err
}

func (p *recordingPublisher) Close(context.Context) error { return nil }

func TestNewEvent(t *testing.T) {
	event := New(TypeReady, map[string]interface{}{"attempt": 1})

	if event.ID == "" {
		t.Error("ID should be set")
	}
	if event.Type != TypeReady {
		t.Errorf("Type = %q, want %q", event.Type, TypeReady)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	first := &recordingPublisher{}
	failing := &recordingPublisher{err: errors.New("sink down")}
	second := &recordingPublisher{}

	fanout := Fanout{first, failing, second}
	err := fanout.Publish(context.Background(), New(TypeStarted, nil))

	if err == nil {
		t.Fatal("Publish() expected error from failing sink")
	}
	for i, p := range []*recordingPublisher{first, failing, second} {
		if len(p.published) != 1 {
			t.Errorf("sink %d got %d events, want 1", i, len(p.published))
		}
	}
}
