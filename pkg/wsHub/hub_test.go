package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

func startServer(t *testing.T, hub *ConnectionHub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn(context.Background(), r.URL.Query().Get("id"), raw)
		_ = hub.Add(c)
		_ = c.Drain()
		_ = hub.Delete(c.ID())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewConnHub("test", logger.Nop())
	srv := startServer(t, hub)

	a := dial(t, srv, "a")
	b := dial(t, srv, "b")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	sent := hub.Broadcast(context.Background(), map[string]string{"type": "dashboard"})
	assert.Equal(t, 2, sent)

	for _, c := range []*websocket.Conn{a, b} {
		var msg map[string]string
		require.NoError(t, c.SetReadDeadline(time.Now().Add(time.Second)))
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, "dashboard", msg["type"])
	}
}

func TestHub_ClientDisconnectRemovesConn(t *testing.T) {
	hub := NewConnHub("test", logger.Nop())
	srv := startServer(t, hub)

	c := dial(t, srv, "a")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_DeleteUnknown(t *testing.T) {
	hub := NewConnHub("test", logger.Nop())
	assert.ErrorIs(t, hub.Delete("missing"), ErrConnIsNotFound)
	assert.ErrorIs(t, hub.Add(nil), ErrEmptyConn)

	_, err := hub.Get("missing")
	assert.ErrorIs(t, err, ErrConnIsNotFound)
}

func TestHub_Close(t *testing.T) {
	hub := NewConnHub("test", logger.Nop())
	srv := startServer(t, hub)

	dial(t, srv, "a")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Count())
}
