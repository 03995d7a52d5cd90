package stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Tokioace/N64-Nexus-sub006/shared/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type connCounter struct{ n atomic.Int64 }

func (c *connCounter) StreamConnectionsChanged(delta int) { c.n.Add(int64(delta)) }

func setup(t *testing.T) (*notify.MemoryBus, *httptest.Server, *connCounter) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := notify.NewMemoryBus(8, logger, nil)
	t.Cleanup(func() { bus.Close() })
	counter := &connCounter{}
	srv := httptest.NewServer(NewHandler(bus, logger, counter))
	t.Cleanup(srv.Close)
	return bus, srv, counter
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame ClientFrame) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, frame))
}

func read(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got ServerFrame
	require.NoError(t, websocket.JSON.Receive(conn, &got))
	return got
}

func TestSubscribeAndReceive(t *testing.T) {
	bus, srv, _ := setup(t)
	conn := dial(t, srv)

	topic := notify.TeamTopic("team-1")
	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: topic})
	ack := read(t, conn)
	require.Equal(t, FrameSubscribed, ack.Type)
	assert.Equal(t, topic, ack.Topic)

	n, err := notify.New(topic, notify.EventMemberJoined, notify.MemberPayload{UserID: "bob", UserName: "Bob"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), n))

	got := read(t, conn)
	assert.Equal(t, FrameNotification, got.Type)
	assert.Equal(t, topic, got.Topic)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, notify.EventMemberJoined, got.Event)
	assert.JSONEq(t, string(n.Payload), string(got.Payload))
}

func TestInvalidFrames(t *testing.T) {
	_, srv, _ := setup(t)
	conn := dial(t, srv)

	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: "lobby"})
	got := read(t, conn)
	assert.Equal(t, FrameError, got.Type)
	assert.Equal(t, "invalid topic", got.Message)

	send(t, conn, ClientFrame{Type: "shout", Topic: notify.GlobalTopic})
	got = read(t, conn)
	assert.Equal(t, FrameError, got.Type)

	_, err := conn.Write([]byte("{not json"))
	require.NoError(t, err)
	got = read(t, conn)
	assert.Equal(t, FrameError, got.Type)
	assert.Equal(t, "invalid frame", got.Message)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus, srv, _ := setup(t)
	conn := dial(t, srv)

	eventTopic := notify.EventTopic("ev-1")
	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: eventTopic})
	require.Equal(t, FrameSubscribed, read(t, conn).Type)
	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: notify.GlobalTopic})
	require.Equal(t, FrameSubscribed, read(t, conn).Type)

	send(t, conn, ClientFrame{Type: FrameUnsubscribe, Topic: eventTopic})
	require.Equal(t, FrameUnsubscribed, read(t, conn).Type)

	// The event notice must not arrive; the global one proves the stream is still live.
	dropped, err := notify.New(eventTopic, notify.EventStarted, map[string]string{"eventId": "ev-1"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), dropped))
	kept, err := notify.New(notify.GlobalTopic, notify.EventAchievementUnlocked, map[string]string{"userId": "alice"})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), kept))

	got := read(t, conn)
	assert.Equal(t, kept.ID, got.ID)
}

func TestConnectionAccounting(t *testing.T) {
	_, srv, counter := setup(t)
	conn := dial(t, srv)
	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: notify.GlobalTopic})
	require.Equal(t, FrameSubscribed, read(t, conn).Type)
	assert.Equal(t, int64(1), counter.n.Load())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return counter.n.Load() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRejectsNonGet(t *testing.T) {
	_, srv, _ := setup(t)
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFrameRateLimitClosesConnection(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := notify.NewMemoryBus(8, logger, nil)
	t.Cleanup(func() { bus.Close() })
	srv := httptest.NewServer(NewHandler(bus, logger, nil).WithFrameLimit(0.001, 2))
	t.Cleanup(srv.Close)
	conn := dial(t, srv)

	for i := 0; i < 2; i++ {
		send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: notify.GlobalTopic})
		require.Equal(t, FrameSubscribed, read(t, conn).Type)
	}
	send(t, conn, ClientFrame{Type: FrameSubscribe, Topic: notify.GlobalTopic})
	got := read(t, conn)
	assert.Equal(t, FrameError, got.Type)
	assert.Equal(t, "rate limit exceeded", got.Message)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var next ServerFrame
	assert.Error(t, websocket.JSON.Receive(conn, &next))
}
