package memory

import (
	"context"
	"sync"

	"github.com/bidurkhatri/veridity-ledger/pkg/platform/events"
)

// InMemorySink keeps events grouped by subject for tests and local runs.
type InMemorySink struct {
	mu     sync.RWMutex
	events map[string][]events.Event
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{events: make(map[string][]events.Event)}
}

func (s *InMemorySink) Append(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Subject] = append(s.events[event.Subject], event)
	return nil
}

// ListBySubject returns all events recorded for one subject, oldest first.
func (s *InMemorySink) ListBySubject(_ context.Context, subject string) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]events.Event{}, s.events[subject]...), nil
}

// ListAll returns every recorded event across all subjects.
func (s *InMemorySink) ListAll(_ context.Context) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []events.Event
	for _, subjectEvents := range s.events {
		all = append(all, subjectEvents...)
	}
	return all, nil
}

func (s *InMemorySink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]events.Event)
}
