package sinks

import (
	"context"
	"slices"

	"github.com/sasha-s/go-deadlock"

	"github.com/al007ex/moomoo-clone/logging"
)

// MemorySink records events in arrival order. Tests use it both as a router
// sink and directly as a logging.Publisher.
type MemorySink struct {
	mu     deadlock.RWMutex
	events []logging.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(event logging.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemorySink) Publish(_ context.Context, event logging.Event) {
	_ = s.Write(event)
}

func (s *MemorySink) Events() []logging.Event {
	return s.filter(func(logging.Event) bool { return true })
}

// OfType returns the recorded events with the given type, oldest first.
func (s *MemorySink) OfType(eventType logging.EventType) []logging.Event {
	return s.filter(func(event logging.Event) bool { return event.Type == eventType })
}

func (s *MemorySink) OfCategory(category string) []logging.Event {
	return s.filter(func(event logging.Event) bool { return event.Category == category })
}

func (s *MemorySink) filter(keep func(logging.Event) bool) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]logging.Event, 0, len(s.events))
	for _, event := range s.events {
		if keep(event) {
			matched = append(matched, event)
		}
	}
	return slices.Clip(matched)
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

func (s *MemorySink) Close(context.Context) error {
	return nil
}
