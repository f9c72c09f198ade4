package events

import (
	"context"
	"time"
)

// Event is one fact recorded about a picking run. Events of a run share a
// stream (the run ID) and are numbered from 1 in the order they were appended.
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler receives the events it subscribed to after they are stored.
// A handler error is logged by the store and never fails the append.
type EventHandler interface {
	Handle(ctx context.Context, event Event) error
	CanHandle(eventType string) bool
}

// EventStore records run events and fans them out to subscribers
type EventStore interface {
	AppendEvent(ctx context.Context, streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// RunEvent is the concrete event type. Its JSON form is the message body
// published to the queue.
type RunEvent struct {
	Kind       string      `json:"type"`
	Stream     string      `json:"stream"`
	Payload    interface{} `json:"data"`
	OccurredAt time.Time   `json:"timestamp"`
	Sequence   int         `json:"version"`
}

var _ Event = RunEvent{}

// now is replaced in tests that need stable timestamps
var now = func() time.Time { return time.Now().UTC() }

// NewEvent stamps payload with the current time. The sequence is assigned
// when the event is appended to a store.
func NewEvent(eventType, streamID string, payload interface{}) Event {
	return RunEvent{
		Kind:       eventType,
		Stream:     streamID,
		Payload:    payload,
		OccurredAt: now(),
		Sequence:   1,
	}
}

// envelope copies any Event into its wire form
func envelope(event Event) RunEvent {
	if e, ok := event.(RunEvent); ok {
		return e
	}
	return RunEvent{
		Kind:       event.Type(),
		Stream:     event.StreamID(),
		Payload:    event.Data(),
		OccurredAt: event.Timestamp(),
		Sequence:   event.Version(),
	}
}

// sequenced returns the event filed under stream as its seq-th entry
func sequenced(event Event, stream string, seq int) RunEvent {
	e := envelope(event)
	e.Stream = stream
	e.Sequence = seq
	return e
}

func (e RunEvent) Type() string         { return e.Kind }
func (e RunEvent) StreamID() string     { return e.Stream }
func (e RunEvent) Data() interface{}    { return e.Payload }
func (e RunEvent) Timestamp() time.Time { return e.OccurredAt }
func (e RunEvent) Version() int         { return e.Sequence }
