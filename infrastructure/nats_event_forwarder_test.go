package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"projector/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

func TestMapEventToSubject(t *testing.T) {
	assert.Equal(t, "projector.analysis.promoted", MapEventToSubject(events.EventTypeAnalysisPromoted))

	for _, subject := range AllSubjects() {
		eventType, ok := MapSubjectToEventType(subject)
		require.True(t, ok, subject)
		assert.Equal(t, subject, MapEventToSubject(eventType))
	}

	_, ok := MapSubjectToEventType("projector.analysis.unknown")
	assert.False(t, ok)
	_, ok = MapSubjectToEventType("other.analysis.created")
	assert.False(t, ok)
}

func TestEventForwarder_WrapsEventInEnvelope(t *testing.T) {
	publisher := new(MockMessagePublisher)
	forwarder := NewEventForwarder(publisher, nil)
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	forwarder.now = func() time.Time { return fixed }

	var published []byte
	publisher.On("Publish", mock.Anything, "projector.analysis.promoted", mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).([]byte)
		}).
		Return(nil).Once()

	forwarder.Handle(context.Background(), events.AnalysisPromotedEvent{
		AnalysisID:    42,
		UserID:        7,
		WeeksPromoted: 4,
		FinalBalance:  1137.39,
		PromotedAt:    fixed,
	})
	publisher.AssertExpectations(t)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(published, &envelope))
	assert.Equal(t, "analysis.promoted", envelope.EventType)
	assert.Equal(t, "projector", envelope.SourceService)
	assert.True(t, envelope.Timestamp.Equal(fixed))
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.AnalysisPromotedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, int64(42), payload.AnalysisID)
	assert.Equal(t, 4, payload.WeeksPromoted)
}

func TestEventForwarder_PublishFailureIsAbsorbed(t *testing.T) {
	publisher := new(MockMessagePublisher)
	forwarder := NewEventForwarder(publisher, nil)

	publisher.On("Publish", mock.Anything, "projector.analysis.deleted", mock.Anything).
		Return(errors.New("nats: timeout")).Once()

	assert.NotPanics(t, func() {
		forwarder.Handle(context.Background(), events.AnalysisDeletedEvent{AnalysisID: 1, UserID: 2})
	})
	publisher.AssertExpectations(t)
}

func TestEventForwarder_ReceivesFlushedBusEvents(t *testing.T) {
	publisher := new(MockMessagePublisher)
	bus := events.NewBus()
	NewEventForwarder(publisher, nil).Register(bus)

	done := make(chan struct{})
	publisher.On("Publish", mock.Anything, "projector.analysis.created", mock.Anything).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil).Once()

	tx := events.NewTransactionalBus(bus)
	tx.Publish(events.AnalysisCreatedEvent{AnalysisID: 3, Weeks: 2})
	tx.Flush(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not forwarded")
	}
	publisher.AssertExpectations(t)
}
