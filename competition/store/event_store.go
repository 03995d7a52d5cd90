// competition/store/event_store.go
package store

import (
	"sort"
	"sync"

	"github.com/Tokioace/N64-Nexus-sub006/shared/models"
)

// EventStore is the in-memory repository behind the event registry. Events are never deleted.
type EventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]*models.Event)}
}

// EventTx is the view handed to Update. Events returned by Get are live.
type EventTx struct {
	s *EventStore
}

// Update runs fn with exclusive access to the store. fn may read the team store;
// the lock order is always events before teams.
func (s *EventStore) Update(fn func(tx *EventTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&EventTx{s: s})
}

func (tx *EventTx) Get(eventID string) (*models.Event, bool) {
	e, ok := tx.s.events[eventID]
	return e, ok
}

func (tx *EventTx) Insert(e *models.Event) {
	tx.s.events[e.ID] = e
}

// Insert stores a new event. The caller must not keep using e.
func (s *EventStore) Insert(e *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

// Get returns a copy of the event.
func (s *EventStore) Get(eventID string) (*models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	return e.Clone(), ok
}

// List returns copies of the events in the given status, or all events when status is empty.
// Events are ordered by start date.
func (s *EventStore) List(status models.EventStatus) []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		if status == "" || e.Status == status {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
