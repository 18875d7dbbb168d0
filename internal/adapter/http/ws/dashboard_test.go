package wshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/internal/domain/types"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	ws "github.com/Temutjin2k/tracker-admin/pkg/wsHub"
)

type fakeAuth struct{}

func (fakeAuth) Authorize(_ context.Context, token string) (*models.CustomClaims, error) {
	if token != "good" {
		return nil, types.ErrInvalidToken
	}
	return &models.CustomClaims{UserID: uuid.New(), Username: "viewer", Role: types.RoleViewer}, nil
}

type countingViews struct {
	calls atomic.Int32
}

func (v *countingViews) Dashboard(context.Context) models.Dashboard {
	n := v.calls.Add(1)
	return models.Dashboard{
		Stats:   models.DashboardStats{TotalDevices: int(n)},
		Devices: []models.DashboardCard{},
	}
}

func setup(t *testing.T, interval time.Duration) (*DashboardStream, *ws.ConnectionHub, string) {
	t.Helper()
	hub := ws.NewConnHub("test", logger.Nop())
	stream := NewDashboardStream(hub, fakeAuth{}, &countingViews{}, interval, []string{"*"}, logger.Nop())

	srv := httptest.NewServer(http.HandlerFunc(stream.ServeWS))
	t.Cleanup(srv.Close)
	return stream, hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func read(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	var msg map[string]any
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func TestServeWS_AuthThenSnapshot(t *testing.T) {
	_, hub, url := setup(t, time.Hour)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(map[string]string{"type": "auth", "token": "good"}))

	msg := read(t, c)
	assert.Equal(t, MessageAuthOK, msg["type"])
	assert.Equal(t, "viewer", msg["username"])

	msg = read(t, c)
	assert.Equal(t, MessageDashboard, msg["type"])
	assert.NotNil(t, msg["data"])

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	_, hub, url := setup(t, time.Hour)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(map[string]string{"type": "auth", "token": "bad"}))

	msg := read(t, c)
	assert.Equal(t, MessageError, msg["type"])
	assert.Equal(t, "invalid token", msg["error"])
	assert.Equal(t, 0, hub.Count())

	_, _, err := c.ReadMessage()
	assert.Error(t, err)
}

func TestServeWS_RejectsWrongFirstMessage(t *testing.T) {
	_, _, url := setup(t, time.Hour)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(map[string]string{"type": "subscribe"}))

	msg := read(t, c)
	assert.Equal(t, MessageError, msg["type"])
}

func TestRun_PushesOnEvent(t *testing.T) {
	stream, hub, url := setup(t, time.Hour)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(map[string]string{"type": "auth", "token": "good"}))
	read(t, c) // auth_ok
	read(t, c) // initial snapshot
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx)

	require.NoError(t, stream.HandleEvent(ctx, models.TrackerEvent{Type: types.EventLocationRecorded, DeviceID: "10"}))

	msg := read(t, c)
	assert.Equal(t, MessageDashboard, msg["type"])
}

func TestRun_PushesOnInterval(t *testing.T) {
	stream, hub, url := setup(t, 50*time.Millisecond)
	c := dial(t, url)

	require.NoError(t, c.WriteJSON(map[string]string{"type": "auth", "token": "good"}))
	read(t, c)
	read(t, c)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx)

	assert.Equal(t, MessageDashboard, read(t, c)["type"])
	assert.Equal(t, MessageDashboard, read(t, c)["type"])
}

func TestNotify_Coalesces(t *testing.T) {
	stream := NewDashboardStream(ws.NewConnHub("test", logger.Nop()), fakeAuth{}, &countingViews{}, time.Hour, nil, logger.Nop())

	stream.Notify()
	stream.Notify()
	stream.Notify()

	assert.Len(t, stream.notify, 1)
}

func TestCheckOrigin(t *testing.T) {
	check := checkOrigin([]string{"https://admin.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/ws/dashboard", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://admin.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))

	assert.True(t, checkOrigin([]string{"*"})(r))
}
