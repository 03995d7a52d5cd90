// shared/notify/bus.go
package notify

import (
	"context"
	"log/slog"
)

// Bus is the topic-keyed publish/subscribe channel between the coordinator and
// connected clients. Delivery is best-effort: a listener that is not subscribed
// when a notification is published never sees it.
type Bus interface {
	// Publish never blocks on slow subscribers. An error means the backend
	// could not accept the notification; callers log it and move on.
	Publish(ctx context.Context, n Notification) error
	Subscribe(topic string, handler Handler) (*Subscription, error)
	Unsubscribe(sub *Subscription)
	Close() error
}

// MemoryBus delivers notifications within the process.
type MemoryBus struct {
	hub      *Hub
	recorder Recorder
}

// NewMemoryBus creates an in-process bus.
func NewMemoryBus(buffer int, logger *slog.Logger, recorder Recorder) *MemoryBus {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &MemoryBus{
		hub:      NewHub(buffer, logger, recorder),
		recorder: recorder,
	}
}

func (b *MemoryBus) Publish(_ context.Context, n Notification) error {
	b.recorder.NotificationPublished(TopicKind(n.Topic))
	b.hub.Dispatch(n)
	return nil
}

func (b *MemoryBus) Subscribe(topic string, handler Handler) (*Subscription, error) {
	return b.hub.Subscribe(topic, handler)
}

func (b *MemoryBus) Unsubscribe(sub *Subscription) {
	b.hub.Unsubscribe(sub)
}

func (b *MemoryBus) Close() error {
	b.hub.Close()
	return nil
}
