// shared/notify/hub.go
package notify

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultSubscriberBuffer is the queue length given to each subscriber when none is configured.
const DefaultSubscriberBuffer = 64

// ErrBusClosed is returned when subscribing to a bus that has been closed.
var ErrBusClosed = errors.New("notification bus closed")

// Handler receives notifications for a subscription. Handlers run on the
// subscription's own goroutine, one notification at a time.
type Handler func(Notification)

// Subscription is a single listener on a topic. It owns a bounded queue; when
// the queue is full new notifications are dropped instead of blocking the publisher.
type Subscription struct {
	ID      string
	Topic   string
	queue   chan Notification
	done    chan struct{}
	exited  chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Dropped returns how many notifications were discarded because the queue was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub is the local fan-out shared by every bus backend. Remote backends feed
// it with notifications received from their broker.
type Hub struct {
	mu       sync.RWMutex
	topics   map[string]map[string]*Subscription
	buffer   int
	closed   bool
	logger   *slog.Logger
	recorder Recorder
}

// NewHub creates a hub whose subscribers each get a queue of buffer notifications.
func NewHub(buffer int, logger *slog.Logger, recorder Recorder) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Hub{
		topics:   make(map[string]map[string]*Subscription),
		buffer:   buffer,
		logger:   logger,
		recorder: recorder,
	}
}

// Subscribe registers handler on topic and starts its delivery goroutine.
func (h *Hub) Subscribe(topic string, handler Handler) (*Subscription, error) {
	sub := &Subscription{
		ID:     uuid.New().String(),
		Topic:  topic,
		queue:  make(chan Notification, h.buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrBusClosed
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]*Subscription)
		h.topics[topic] = subs
	}
	subs[sub.ID] = sub
	h.mu.Unlock()

	h.recorder.SubscribersChanged(TopicKind(topic), 1)
	go h.deliver(sub, handler)
	return sub, nil
}

// Unsubscribe removes the subscription. Queued but undelivered notifications are discarded.
// It returns the number of subscriptions left on the topic.
func (h *Hub) Unsubscribe(sub *Subscription) int {
	if sub == nil {
		return 0
	}
	h.mu.Lock()
	subs := h.topics[sub.Topic]
	_, found := subs[sub.ID]
	if found {
		delete(subs, sub.ID)
		if len(subs) == 0 {
			delete(h.topics, sub.Topic)
		}
	}
	remaining := len(h.topics[sub.Topic])
	h.mu.Unlock()

	if found {
		sub.stop()
		h.recorder.SubscribersChanged(TopicKind(sub.Topic), -1)
	}
	return remaining
}

// Dispatch hands n to every current subscriber of n.Topic without blocking.
func (h *Hub) Dispatch(n Notification) {
	kind := TopicKind(n.Topic)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.topics[n.Topic] {
		select {
		case sub.queue <- n:
		default:
			sub.dropped.Add(1)
			h.recorder.NotificationDropped(kind)
			h.logger.Warn("Dropping notification for slow subscriber",
				slog.String("topic", n.Topic),
				slog.String("event", n.Event),
				slog.String("subscription_id", sub.ID),
			)
		}
	}
}

// Count returns the number of subscriptions on topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close stops every subscription. Later Subscribe calls fail with ErrBusClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	topics := h.topics
	h.topics = make(map[string]map[string]*Subscription)
	h.mu.Unlock()

	for topic, subs := range topics {
		for _, sub := range subs {
			sub.stop()
			h.recorder.SubscribersChanged(TopicKind(topic), -1)
		}
	}
}

func (h *Hub) deliver(sub *Subscription, handler Handler) {
	defer close(sub.exited)
	for {
		select {
		case <-sub.done:
			return
		case n := <-sub.queue:
			// Unsubscribe wins over pending work.
			select {
			case <-sub.done:
				return
			default:
			}
			h.safeCall(handler, n)
			h.recorder.NotificationDelivered(TopicKind(n.Topic))
		}
	}
}

// safeCall keeps one panicking handler from taking down delivery for the process.
func (h *Hub) safeCall(handler Handler, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Notification handler panicked",
				slog.String("topic", n.Topic),
				slog.String("event", n.Event),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	handler(n)
}
