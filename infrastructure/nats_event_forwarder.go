package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"projector/events"
	"projector/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher sends raw payloads to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope wraps an event payload for the message bus
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventForwarder relays committed events from the in-process bus to NATS
type EventForwarder struct {
	publisher MessagePublisher
	metrics   *observability.MetricsProvider
	now       func() time.Time
}

// NewEventForwarder creates a forwarder; metrics may be nil
func NewEventForwarder(publisher MessagePublisher, metrics *observability.MetricsProvider) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register subscribes the forwarder to every event on the bus
func (f *EventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(f.Handle)
}

// Handle publishes one event. Failures are logged; the originating transaction has already committed.
func (f *EventForwarder) Handle(ctx context.Context, event events.Event) {
	subject := MapEventToSubject(event.Type())

	err := f.forward(ctx, subject, event)
	f.metrics.RecordNATSPublish(string(event.Type()), err)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"subject":   subject,
			"error":     err,
		}).Error("Failed to forward event to NATS")
	}
}

func (f *EventForwarder) forward(ctx context.Context, subject string, event events.Event) error {
	data, err := f.envelope(event)
	if err != nil {
		return err
	}
	return f.publisher.Publish(ctx, subject, data)
}

func (f *EventForwarder) envelope(event events.Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	data, err := json.Marshal(EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     f.now(),
		SourceService: "projector",
		Payload:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}
