// Package broadcast pushes colour updates to WebSocket clients.
package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/desktopdye/desktopdye/internal/pipeline"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

// EventColorsUpdate is the type of events carrying new colours.
const EventColorsUpdate = "colors.update"

// Event is the JSON message sent to clients.
type Event struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	CreatedAt int64    `json:"created_at"`
	Payload   string   `json:"payload"`
	Colors    []string `json:"colors"`
}

// NewColorsEvent builds a colors.update event from a pipeline result.
func NewColorsEvent(result *pipeline.Result) Event {
	colors := make([]string, len(result.Colors))
	for i, c := range result.Colors {
		colors[i] = c.Hex()
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      EventColorsUpdate,
		CreatedAt: time.Now().UnixMilli(),
		Payload:   result.Payload,
		Colors:    colors,
	}
}

// Hub fans events out to registered clients. Clients that cannot keep up
// are dropped.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	count      chan int

	// last is replayed to clients when they connect.
	last []byte

	logger hclog.Logger
}

// NewHub creates a hub. Run must be started before it is used.
func NewHub(logger hclog.Logger) *Hub {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Hub{
		clients:    map[*Client]struct{}{},
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan int),
		logger:     logger.Named("broadcast"),
	}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("client connected", "id", c.id, "clients", len(h.clients))
			if h.last != nil {
				c.send <- h.last
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("client disconnected", "id", c.id, "clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			h.last = msg
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropping slow client", "id", c.id)
				}
			}
		case h.count <- len(h.clients):
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients(ctx context.Context) int {
	select {
	case n := <-h.count:
		return n
	case <-ctx.Done():
		return 0
	}
}

// Publish queues evt for every client.
func (h *Hub) Publish(ctx context.Context, evt Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit publishes a colors.update event for result.
func (h *Hub) Submit(ctx context.Context, result *pipeline.Result) error {
	return h.Publish(ctx, NewColorsEvent(result))
}

// Client is one WebSocket connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{id: uuid.NewString(), hub: hub, conn: conn, send: make(chan []byte, 128)}
}

// readPump discards client messages and handles pongs until the connection
// fails.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-ctx.Done():
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
