// shared/notify/redis.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	redisu "github.com/Tokioace/N64-Nexus-sub006/shared/redis"
	"github.com/redis/go-redis/v9"
)

// RedisBus fans notifications out across coordinator instances through Redis
// pub/sub. Every instance holds one pattern subscription and dispatches what it
// receives to its local subscribers, including notifications it published itself.
type RedisBus struct {
	client   redis.UniversalClient
	pubsub   *redis.PubSub
	hub      *Hub
	logger   *slog.Logger
	recorder Recorder
	wg       sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
}

// NewRedisBus subscribes to the notification channel pattern and starts the receive loop.
func NewRedisBus(ctx context.Context, client redis.UniversalClient, buffer int, logger *slog.Logger, recorder Recorder) (*RedisBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}

	pubsub := client.PSubscribe(ctx, redisu.NotificationChannelPattern)
	// Wait for the subscription confirmation so publishes right after startup are not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", redisu.NotificationChannelPattern, err)
	}

	b := &RedisBus{
		client:   client,
		pubsub:   pubsub,
		hub:      NewHub(buffer, logger, recorder),
		logger:   logger,
		recorder: recorder,
	}
	b.wg.Add(1)
	go b.receive()

	logger.Info("Redis notification bus subscribed", slog.String("pattern", redisu.NotificationChannelPattern))
	return b, nil
}

func (b *RedisBus) receive() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		n, err := decodeRedisMessage(msg)
		if err != nil {
			b.logger.Warn("Discarding malformed notification from Redis",
				slog.String("channel", msg.Channel),
				slog.Any("error", err),
			)
			continue
		}
		b.hub.Dispatch(n)
	}
}

func decodeRedisMessage(msg *redis.Message) (Notification, error) {
	topic, ok := redisu.TopicFromChannel(msg.Channel)
	if !ok {
		return Notification{}, fmt.Errorf("channel %q is not a notification channel", msg.Channel)
	}
	var n Notification
	if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
		return Notification{}, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	// The channel is authoritative for routing.
	n.Topic = topic
	return n, nil
}

// Publish sends n to every instance subscribed to the pattern.
func (b *RedisBus) Publish(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", n.ID, err)
	}
	if err := b.client.Publish(ctx, redisu.NotificationChannel(n.Topic), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification on %s: %w", n.Topic, err)
	}
	b.recorder.NotificationPublished(TopicKind(n.Topic))
	return nil
}

func (b *RedisBus) Subscribe(topic string, handler Handler) (*Subscription, error) {
	return b.hub.Subscribe(topic, handler)
}

func (b *RedisBus) Unsubscribe(sub *Subscription) {
	b.hub.Unsubscribe(sub)
}

// Close releases the pattern subscription and stops local delivery.
// The Redis client itself belongs to the caller.
func (b *RedisBus) Close() error {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return nil
	}
	b.closed = true
	b.closeMu.Unlock()

	err := b.pubsub.Close()
	b.wg.Wait()
	b.hub.Close()
	if err != nil {
		return fmt.Errorf("failed to close Redis subscription: %w", err)
	}
	return nil
}
