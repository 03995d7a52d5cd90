package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/competition/store"
	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/stretchr/testify/require"
)

// fakeBus records every published notification.
type fakeBus struct {
	mu        sync.Mutex
	published []notify.Notification
	err       error
}

func (b *fakeBus) Publish(_ context.Context, n notify.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, n)
	return nil
}

func (b *fakeBus) Subscribe(string, notify.Handler) (*notify.Subscription, error) { return nil, nil }
func (b *fakeBus) Unsubscribe(*notify.Subscription)                               {}
func (b *fakeBus) Close() error                                                   { return nil }

func (b *fakeBus) events(topic string) []notify.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []notify.Notification
	for _, n := range b.published {
		if n.Topic == topic {
			out = append(out, n)
		}
	}
	return out
}

func (b *fakeBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	bus         *fakeBus
	teamStore   *store.TeamStore
	eventStore  *store.EventStore
	teams       *TeamService
	events      *EventService
	submissions *SubmissionService
	stats       *StatsService
	profiles    *store.MemoryProfileStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := &fakeBus{}
	clock := newStepClock()
	opts := Options{Bus: bus, Now: clock.Now}
	teamStore := store.NewTeamStore()
	eventStore := store.NewEventStore()
	profiles := store.NewMemoryProfileStore()
	return &fixture{
		bus:         bus,
		teamStore:   teamStore,
		eventStore:  eventStore,
		teams:       NewTeamService(teamStore, 4, opts),
		events:      NewEventService(eventStore, teamStore, 50, opts),
		submissions: NewSubmissionService(teamStore, eventStore, opts),
		stats:       NewStatsService(profiles, opts),
		profiles:    profiles,
	}
}

func decodePayload[T any](t *testing.T, n notify.Notification) T {
	t.Helper()
	var v T
	require.NoError(t, n.Decode(&v))
	return v
}
