// Package ws bridges the scan event bus to WebSocket clients. Every
// connected client receives every scan lifecycle event as a JSON text frame.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are enforced by the CORS middleware in front of the mux.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one connected WebSocket peer.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans scan events out to all connected clients. It subscribes once to
// the service events channel and broadcasts each payload verbatim.
type Hub struct {
	bus        domain.SignalBus
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	logger     *slog.Logger
	startedAt  time.Time
}

// NewHub creates a Hub over the given signal bus.
func NewHub(bus domain.SignalBus, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		logger:     logger.With(slog.String("component", "ws_hub")),
		startedAt:  time.Now().UTC(),
	}
}

// Run drives the hub until the context is cancelled. It owns the client set;
// registration, disconnection, and broadcast all flow through this loop.
func (h *Hub) Run(ctx context.Context) error {
	go h.pump(ctx)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return ctx.Err()

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Info("client connected", slog.Int("total", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("client disconnected", slog.Int("total", len(h.clients)))

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("dropping event for slow client")
				}
			}
		}
	}
}

// pump forwards bus messages into the broadcast loop, resubscribing with
// backoff if the subscription channel closes.
func (h *Hub) pump(ctx context.Context) {
	for {
		msgs, err := h.bus.Subscribe(ctx, service.EventsChannel)
		if err != nil {
			h.logger.Error("subscribe failed", slog.String("error", err.Error()))
		} else {
			h.drain(ctx, msgs)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (h *Hub) drain(ctx context.Context, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgs:
			if !ok {
				h.logger.Warn("bus subscription closed")
				return
			}
			h.broadcast <- data
		}
	}
}

// HandleWS upgrades the request and registers the connection.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register <- c
	c.sendHello()

	go c.writePump()
	go c.readPump()
}

// sendHello pushes a greeting frame so clients can mark the connection
// healthy before the first scan event arrives.
func (c *client) sendHello() {
	msg, err := json.Marshal(map[string]any{
		"kind":           "hello",
		"uptime_seconds": int64(time.Since(c.hub.startedAt).Seconds()),
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// readPump discards inbound frames; the protocol is broadcast-only. It exists
// to service pong handlers and detect disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// writePump writes broadcast frames and keepalive pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
