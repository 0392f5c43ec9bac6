// Package hub fans persisted-state changes out to websocket clients. It is
// the push half of the change-notification contract; clients without a
// socket fall back to polling the REST endpoints.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/virtbet/vleague/internal/store"
)

// Message is the envelope pushed to clients.
type Message struct {
	Type    string `json:"type"` // "state" | "result"
	Payload any    `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register adds a client to the hub. A no-op once the hub has shut down, so
// connections racing the teardown never strand their goroutines.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues a message for every connected client. Drops the message
// when the hub buffer is full rather than blocking the writer.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		slog.Warn("broadcast buffer full, dropping message", "type", msg.Type)
	}
}

// StateChanged implements store.Notifier.
func (h *Hub) StateChanged(s store.GlobalState) {
	h.Broadcast(Message{Type: "state", Payload: s})
}

// ResultChanged implements store.Notifier.
func (h *Hub) ResultChanged(m store.MatchResult) {
	h.Broadcast(Message{Type: "result", Payload: m})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[c] = true
	slog.Info("client connected", "id", c.ID, "total", len(h.clients))
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		slog.Info("client disconnected", "id", c.ID, "total", len(h.clients))
	}
}

func (h *Hub) send(msg Message) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			// Slow client; skip this message rather than stall the hub.
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}
