// Package ws keeps the set of live websocket connections.
package ws

import (
	"context"
	"errors"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
	wrap "github.com/Temutjin2k/tracker-admin/pkg/logger/wrapper"
	"github.com/Temutjin2k/tracker-admin/pkg/metrics"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub stores active websocket connections by id.
type ConnectionHub struct {
	clients     cmap.ConcurrentMap[string, *Conn]
	serviceName string
	l           logger.Logger
}

func NewConnHub(serviceName string, l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		clients:     cmap.New[*Conn](),
		serviceName: serviceName,
		l:           l,
	}
}

// Add stores a connection, closing any previous connection with the same id.
func (h *ConnectionHub) Add(c *Conn) error {
	if c == nil {
		return ErrEmptyConn
	}

	h.clients.Upsert(c.id, c, func(exists bool, old, newConn *Conn) *Conn {
		if exists && old != newConn {
			ctx := wrap.WithAction(context.Background(), "add_ws_connection")
			h.l.Warn(ctx, "replacing existing connection", "conn_id", old.id)
			_ = old.Close()
		}
		return newConn
	})
	h.updateGauge()
	return nil
}

// Delete removes and closes a connection.
func (h *ConnectionHub) Delete(id string) error {
	c, ok := h.clients.Pop(id)
	if !ok {
		return ErrConnIsNotFound
	}
	h.updateGauge()

	if err := c.Close(); err != nil {
		h.l.Debug(wrap.WithAction(context.Background(), "ws_connection_delete"), "failed to close conn", "conn_id", id, "err", err.Error())
	}
	return nil
}

func (h *ConnectionHub) Get(id string) (*Conn, error) {
	c, ok := h.clients.Get(id)
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return c, nil
}

func (h *ConnectionHub) Count() int {
	return h.clients.Count()
}

// Broadcast sends v to every connection and drops the ones that fail.
// It returns the number of successful sends.
func (h *ConnectionHub) Broadcast(ctx context.Context, v any) int {
	sent := 0
	for item := range h.clients.IterBuffered() {
		if err := item.Val.Send(v); err != nil {
			h.l.Debug(ctx, "dropping websocket connection", "conn_id", item.Key, "err", err.Error())
			_ = h.Delete(item.Key)
			continue
		}
		sent++
	}
	return sent
}

// Close closes every connection.
func (h *ConnectionHub) Close() {
	for _, id := range h.clients.Keys() {
		_ = h.Delete(id)
	}
	h.l.Info(wrap.WithAction(context.Background(), "hub_close"), "all websocket connections closed")
}

func (h *ConnectionHub) updateGauge() {
	metrics.WebSocketConnectionsGauge.WithLabelValues(h.serviceName).Set(float64(h.clients.Count()))
}
