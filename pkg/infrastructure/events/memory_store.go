package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps every event of the process and dispatches each one
// to its subscribers synchronously, in subscription order. A failing handler
// is logged and does not stop the others or the append.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	position    int
	allEvents   []Event
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, streamID string, event Event) error {
	s.mutex.Lock()

	eventWithVersion := sequenced(event, streamID, len(s.streams[streamID])+1)

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)
	s.position++

	handlers := make([]EventHandler, len(s.subscribers[event.Type()]))
	copy(handlers, s.subscribers[event.Type()])
	s.mutex.Unlock()

	s.notifySubscribers(ctx, handlers, eventWithVersion)

	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	out := make([]Event, len(events)-fromVersion+1)
	copy(out, events[fromVersion-1:])
	return out, nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	out := make([]Event, len(s.allEvents)-fromPosition)
	copy(out, s.allEvents[fromPosition:])
	return out, nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		newHandlers := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				newHandlers = append(newHandlers, h)
			}
		}
		s.subscribers[eventType] = newHandlers
	}

	return nil
}

func (s *InMemoryEventStore) notifySubscribers(ctx context.Context, handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(ctx, event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("stream", event.StreamID()),
				zap.Error(err),
			)
		}
	}
}
