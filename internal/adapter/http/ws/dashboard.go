// Package wshandler serves the live dashboard websocket.
package wshandler

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Temutjin2k/tracker-admin/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/tracker-admin/internal/domain/models"
	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	ws "github.com/Temutjin2k/tracker-admin/pkg/wsHub"
)

const (
	MessageAuth      = "auth"
	MessageAuthOK    = "auth_ok"
	MessageDashboard = "dashboard"
	MessageError     = "error"

	authTimeout = 10 * time.Second
)

type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (*models.CustomClaims, error)
}

type DashboardBuilder interface {
	Dashboard(ctx context.Context) models.Dashboard
}

// Message is the envelope of every server push.
type Message struct {
	Type     string `json:"type"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// DashboardStream pushes dashboard snapshots to authenticated clients on a
// fixed interval and whenever a tracker event arrives.
type DashboardStream struct {
	hub      *ws.ConnectionHub
	auth     Authorizer
	views    DashboardBuilder
	upgrader websocket.Upgrader
	interval time.Duration
	notify   chan struct{}
	l        logger.Logger
}

// NewDashboardStream creates the stream. origins lists the allowed browser
// origins; "*" allows any.
func NewDashboardStream(hub *ws.ConnectionHub, auth Authorizer, views DashboardBuilder, interval time.Duration, origins []string, l logger.Logger) *DashboardStream {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &DashboardStream{
		hub:   hub,
		auth:  auth,
		views: views,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(origins),
		},
		interval: interval,
		notify:   make(chan struct{}, 1),
		l:        l,
	}
}

// ServeWS upgrades the request, waits for the auth message and keeps the
// connection registered until the client goes away.
func (s *DashboardStream) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_dashboard")

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.l.Debug(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	conn := ws.NewConn(ctx, uuid.NewString(), raw)

	claims, err := s.authenticate(ctx, conn)
	if err != nil {
		s.l.Debug(ctx, "websocket authentication failed", "error", err.Error())
		_ = conn.Send(Message{Type: MessageError, Error: err.Error()})
		_ = conn.Close()
		return
	}
	ctx = wrap.WithUserID(ctx, claims.UserID.String())

	if err := conn.Send(Message{Type: MessageAuthOK, UserID: claims.UserID.String(), Username: claims.Username}); err != nil {
		_ = conn.Close()
		return
	}
	if err := conn.Send(Message{Type: MessageDashboard, Data: s.views.Dashboard(ctx)}); err != nil {
		_ = conn.Close()
		return
	}

	if err := s.hub.Add(conn); err != nil {
		s.l.Error(ctx, "failed to register websocket connection", err)
		_ = conn.Close()
		return
	}
	s.l.Info(ctx, "dashboard client connected", "conn_id", conn.ID(), "clients", s.hub.Count())

	if err := conn.Drain(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.l.Debug(ctx, "dashboard client read failed", "conn_id", conn.ID(), "error", err.Error())
	}

	_ = s.hub.Delete(conn.ID())
	s.l.Info(ctx, "dashboard client disconnected", "conn_id", conn.ID())
}

func (s *DashboardStream) authenticate(ctx context.Context, conn *ws.Conn) (*models.CustomClaims, error) {
	var msg dto.WebSocketAuth
	if err := conn.ReadJSON(&msg, authTimeout); err != nil {
		return nil, errors.New("expected auth message")
	}
	if msg.Type != MessageAuth || msg.Token == "" {
		return nil, errors.New("expected auth message")
	}

	claims, err := s.auth.Authorize(ctx, msg.Token)
	if err != nil {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Run pushes snapshots until ctx is done.
func (s *DashboardStream) Run(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "ws_dashboard_push")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.notify:
		}
		s.push(ctx)
	}
}

// Notify requests an immediate push. Requests made while one is pending
// are coalesced.
func (s *DashboardStream) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// HandleEvent triggers a push for every tracker event. It is used as the
// RabbitMQ consumer callback.
func (s *DashboardStream) HandleEvent(ctx context.Context, event models.TrackerEvent) error {
	s.l.Debug(wrap.WithDeviceID(ctx, event.DeviceID.String()), "tracker event received", "type", event.Type.String())
	s.Notify()
	return nil
}

func (s *DashboardStream) push(ctx context.Context) {
	if s.hub.Count() == 0 {
		return
	}

	dashboard := s.views.Dashboard(ctx)
	sent := s.hub.Broadcast(ctx, Message{Type: MessageDashboard, Data: dashboard})
	s.l.Debug(ctx, "dashboard pushed", "clients", sent, "degraded", dashboard.Degraded)
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
