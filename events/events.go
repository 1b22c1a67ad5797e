package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType identifies an analysis lifecycle event
type EventType string

const (
	EventTypeAnalysisCreated  EventType = "analysis.created"
	EventTypeAnalysisStaged   EventType = "analysis.staged"
	EventTypeAnalysisPromoted EventType = "analysis.promoted"
	EventTypeAnalysisDeleted  EventType = "analysis.deleted"
)

// AllEventTypes lists every event type the projector emits
var AllEventTypes = []EventType{
	EventTypeAnalysisCreated,
	EventTypeAnalysisStaged,
	EventTypeAnalysisPromoted,
	EventTypeAnalysisDeleted,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AnalysisCreatedEvent is emitted once a new analysis and its first staging set are committed
type AnalysisCreatedEvent struct {
	AnalysisID   int64   `json:"analysis_id"`
	UserID       int64   `json:"user_id"`
	Weeks        int     `json:"weeks"`
	FinalBalance float64 `json:"final_balance"`
}

func (e AnalysisCreatedEvent) Type() EventType {
	return EventTypeAnalysisCreated
}

// AnalysisStagedEvent is emitted when a recalculation replaced the staging set
type AnalysisStagedEvent struct {
	AnalysisID   int64   `json:"analysis_id"`
	UserID       int64   `json:"user_id"`
	Weeks        int     `json:"weeks"`
	FinalBalance float64 `json:"final_balance"`
}

func (e AnalysisStagedEvent) Type() EventType {
	return EventTypeAnalysisStaged
}

// AnalysisPromotedEvent is emitted after staging rows became permanent
type AnalysisPromotedEvent struct {
	AnalysisID       int64     `json:"analysis_id"`
	UserID           int64     `json:"user_id"`
	WeeksPromoted    int       `json:"weeks_promoted"`
	ReplacedPrevious int       `json:"replaced_previous"`
	FinalBalance     float64   `json:"final_balance"`
	PromotedAt       time.Time `json:"promoted_at"`
}

func (e AnalysisPromotedEvent) Type() EventType {
	return EventTypeAnalysisPromoted
}

// AnalysisDeletedEvent is emitted after an analysis and its staging rows were removed
type AnalysisDeletedEvent struct {
	AnalysisID int64 `json:"analysis_id"`
	UserID     int64 `json:"user_id"`
}

func (e AnalysisDeletedEvent) Type() EventType {
	return EventTypeAnalysisDeleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler")
}

// SubscribeAll registers the handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit dispatches an event to its handlers, each on its own goroutine
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush emits queued events. Called only after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Handlers outlive the request, so they do not inherit its cancellation.
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Emit(eventCtx, ev)
		}
	}
	log.WithField("eventCount", len(b.pending)).Debug("Flushed committed events")
	b.pending = nil
}

// Discard drops queued events after a rollback
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("eventCount", len(b.pending)).Debug("Discarded events of rolled back transaction")
	}
	b.pending = nil
}
