// competition/stream/handler.go
package stream

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

// Client frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Server frame types.
const (
	FrameNotification = "notification"
	FrameSubscribed   = "subscribed"
	FrameUnsubscribed = "unsubscribed"
	FrameError        = "error"
)

const (
	DefaultMaxSubscriptions = 32
	// Client frames per second per connection, with a small burst for reconnect storms.
	DefaultFrameRate       = 20
	defaultFrameBurst      = 40
	maxDecodeErrorsPerConn = 3
	writeTimeout           = 5 * time.Second
)

// ConnectionRecorder observes open stream connections.
type ConnectionRecorder interface {
	StreamConnectionsChanged(delta int)
}

type nopRecorder struct{}

func (nopRecorder) StreamConnectionsChanged(int) {}

// ClientFrame is sent by a connected client.
type ClientFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// ServerFrame is sent to a connected client.
type ServerFrame struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	ID        string          `json:"id,omitempty"`
	Event     string          `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Handler bridges the notification bus to WebSocket clients. Each connection
// manages its own topic subscriptions, all released when it closes.
type Handler struct {
	bus              notify.Bus
	logger           *slog.Logger
	recorder         ConnectionRecorder
	maxSubscriptions int
	frameRate        rate.Limit
	frameBurst       int
	server           websocket.Server
}

// NewHandler creates a stream handler. recorder may be nil.
func NewHandler(bus notify.Bus, logger *slog.Logger, recorder ConnectionRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	h := &Handler{
		bus:              bus,
		logger:           logger,
		recorder:         recorder,
		maxSubscriptions: DefaultMaxSubscriptions,
		frameRate:        DefaultFrameRate,
		frameBurst:       defaultFrameBurst,
	}
	// Non-browser clients send no Origin header; accept them.
	h.server = websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   h.serveConn,
	}
	return h
}

// WithFrameLimit overrides the per-connection client frame rate.
func (h *Handler) WithFrameLimit(perSecond float64, burst int) *Handler {
	h.frameRate = rate.Limit(perSecond)
	h.frameBurst = burst
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.server.ServeHTTP(w, r)
}

// peer serializes writes from the read loop and every delivery goroutine.
type peer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *peer) send(frame ServerFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return websocket.JSON.Send(p.conn, frame)
}

func (h *Handler) serveConn(conn *websocket.Conn) {
	// The HTTP server's read/write deadlines survive the hijack.
	_ = conn.SetDeadline(time.Time{})
	defer conn.Close()

	h.recorder.StreamConnectionsChanged(1)
	defer h.recorder.StreamConnectionsChanged(-1)

	remote := ""
	if req := conn.Request(); req != nil {
		remote = req.RemoteAddr
	}
	logger := h.logger.With(slog.String("remote", remote))
	logger.Debug("Stream connection opened")

	p := &peer{conn: conn}
	subs := make(map[string]*notify.Subscription)
	defer func() {
		for _, sub := range subs {
			h.bus.Unsubscribe(sub)
		}
		logger.Debug("Stream connection closed", slog.Int("subscriptions", len(subs)))
	}()

	limiter := rate.NewLimiter(h.frameRate, h.frameBurst)
	decodeErrors := 0
	for {
		var frame ClientFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				logger.Debug("Stream read failed", slog.Any("error", err))
				return
			}
			decodeErrors++
			_ = p.send(ServerFrame{Type: FrameError, Message: "invalid frame"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if !limiter.Allow() {
			logger.Warn("Closing stream connection over frame rate limit")
			_ = p.send(ServerFrame{Type: FrameError, Message: "rate limit exceeded"})
			return
		}

		topic := strings.TrimSpace(frame.Topic)
		switch frame.Type {
		case FrameSubscribe:
			h.subscribe(p, subs, topic, logger)
		case FrameUnsubscribe:
			if sub, ok := subs[topic]; ok {
				h.bus.Unsubscribe(sub)
				delete(subs, topic)
			}
			_ = p.send(ServerFrame{Type: FrameUnsubscribed, Topic: topic})
		default:
			_ = p.send(ServerFrame{Type: FrameError, Topic: topic, Message: "unsupported frame type"})
		}
	}
}

func (h *Handler) subscribe(p *peer, subs map[string]*notify.Subscription, topic string, logger *slog.Logger) {
	if !notify.ValidTopic(topic) {
		_ = p.send(ServerFrame{Type: FrameError, Topic: topic, Message: "invalid topic"})
		return
	}
	if _, ok := subs[topic]; ok {
		_ = p.send(ServerFrame{Type: FrameSubscribed, Topic: topic})
		return
	}
	if len(subs) >= h.maxSubscriptions {
		_ = p.send(ServerFrame{Type: FrameError, Topic: topic, Message: "too many subscriptions"})
		return
	}

	sub, err := h.bus.Subscribe(topic, func(n notify.Notification) {
		ts := n.Timestamp
		if err := p.send(ServerFrame{
			Type:      FrameNotification,
			Topic:     n.Topic,
			ID:        n.ID,
			Event:     n.Event,
			Payload:   n.Payload,
			Timestamp: &ts,
		}); err != nil {
			logger.Debug("Failed to forward notification", slog.String("topic", n.Topic), slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Warn("Stream subscribe failed", slog.String("topic", topic), slog.Any("error", err))
		_ = p.send(ServerFrame{Type: FrameError, Topic: topic, Message: "subscribe failed"})
		return
	}
	subs[topic] = sub
	_ = p.send(ServerFrame{Type: FrameSubscribed, Topic: topic})
}
