package events

import (
	"context"
	"time"
)

// Event is a domain fact carried over the bus. EventName doubles as the
// subscription key, so it must be stable across the codebase.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp every event needs; domain events embed it.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events for one subscription.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler, the usual way
// subscribers are written here.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribers.
type Bus interface {
	// Publish dispatches to all handlers for the event's name without
	// waiting for them; handler failures never reach the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches and waits, joining handler errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an Event.EventName() value.
	Subscribe(eventName string, handler Handler)
}
