// shared/notify/watermill.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
)

// brokerTopicPrefix namespaces notification subjects on the broker.
const brokerTopicPrefix = "speedrun.notify."

// Metadata keys set on outgoing Watermill messages.
const (
	metadataEvent = "event"
	metadataTopic = "topic"
)

// BrokerTopic maps a bus topic onto a broker subject ("team:abc" -> "speedrun.notify.team.abc").
func BrokerTopic(topic string) string {
	return brokerTopicPrefix + strings.ReplaceAll(topic, ":", ".")
}

// WatermillBus carries notifications over any Watermill publisher/subscriber pair.
// A broker subscription is opened for a topic when its first local listener
// arrives and released when the last one leaves.
type WatermillBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	hub        *Hub
	logger     *slog.Logger
	recorder   Recorder

	mu         sync.Mutex
	forwarders map[string]context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
}

// NewWatermillBus wraps an existing publisher and subscriber. The bus closes both on Close.
func NewWatermillBus(publisher message.Publisher, subscriber message.Subscriber, buffer int, logger *slog.Logger, recorder Recorder) *WatermillBus {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &WatermillBus{
		publisher:  publisher,
		subscriber: subscriber,
		hub:        NewHub(buffer, logger, recorder),
		logger:     logger,
		recorder:   recorder,
		forwarders: make(map[string]context.CancelFunc),
	}
}

// NewNATSBus connects a WatermillBus to NATS core subjects. JetStream is not used:
// notifications are not persisted and there is no replay.
func NewNATSBus(natsURL string, buffer int, logger *slog.Logger, recorder Recorder) (*WatermillBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	natsOptions := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(5 * time.Second),
	}

	publisher, err := wmnats.NewPublisher(
		wmnats.PublisherConfig{
			URL:         natsURL,
			Marshaler:   marshaler,
			NatsOptions: natsOptions,
			JetStream:   wmnats.JetStreamConfig{Disabled: true},
		},
		wmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(
		wmnats.SubscriberConfig{
			URL:              natsURL,
			Unmarshaler:      marshaler,
			NatsOptions:      natsOptions,
			CloseTimeout:     5 * time.Second,
			SubscribeTimeout: 5 * time.Second,
			JetStream:        wmnats.JetStreamConfig{Disabled: true},
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("NATS notification bus connected", slog.String("url", natsURL))
	return NewWatermillBus(publisher, subscriber, buffer, logger, recorder), nil
}

func (b *WatermillBus) Publish(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification %s: %w", n.ID, err)
	}
	msg := message.NewMessage(n.ID, data)
	msg.Metadata.Set(metadataEvent, n.Event)
	msg.Metadata.Set(metadataTopic, n.Topic)

	if err := b.publisher.Publish(BrokerTopic(n.Topic), msg); err != nil {
		return fmt.Errorf("failed to publish notification on %s: %w", n.Topic, err)
	}
	b.recorder.NotificationPublished(TopicKind(n.Topic))
	return nil
}

func (b *WatermillBus) Subscribe(topic string, handler Handler) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	if err := b.ensureForwarderLocked(topic); err != nil {
		return nil, err
	}
	sub, err := b.hub.Subscribe(topic, handler)
	if err != nil {
		b.releaseForwarderLocked(topic)
		return nil, err
	}
	return sub, nil
}

func (b *WatermillBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if remaining := b.hub.Unsubscribe(sub); remaining == 0 {
		b.releaseForwarderLocked(sub.Topic)
	}
}

// ensureForwarderLocked must be called with b.mu held.
func (b *WatermillBus) ensureForwarderLocked(topic string) error {
	if _, ok := b.forwarders[topic]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.subscriber.Subscribe(ctx, BrokerTopic(topic))
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to broker topic %s: %w", BrokerTopic(topic), err)
	}
	b.forwarders[topic] = cancel

	b.wg.Add(1)
	go b.forward(topic, messages)
	return nil
}

// releaseForwarderLocked must be called with b.mu held.
func (b *WatermillBus) releaseForwarderLocked(topic string) {
	if b.hub.Count(topic) > 0 {
		return
	}
	if cancel, ok := b.forwarders[topic]; ok {
		cancel()
		delete(b.forwarders, topic)
	}
}

func (b *WatermillBus) forward(topic string, messages <-chan *message.Message) {
	defer b.wg.Done()
	for msg := range messages {
		var n Notification
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			b.logger.Warn("Discarding malformed notification from broker",
				slog.String("topic", topic),
				slog.String("message_id", msg.UUID),
				slog.Any("error", err),
			)
			msg.Ack()
			continue
		}
		n.Topic = topic
		b.hub.Dispatch(n)
		msg.Ack()
	}
}

// Close stops forwarding, drops every local subscription and closes the broker clients.
func (b *WatermillBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for topic, cancel := range b.forwarders {
		cancel()
		delete(b.forwarders, topic)
	}
	b.mu.Unlock()

	subErr := b.subscriber.Close()
	b.wg.Wait()
	b.hub.Close()
	pubErr := b.publisher.Close()

	if subErr != nil {
		return fmt.Errorf("failed to close subscriber: %w", subErr)
	}
	if pubErr != nil {
		return fmt.Errorf("failed to close publisher: %w", pubErr)
	}
	return nil
}
