// Package ws implements the live subscription feed. Every committed machine
// or content mutation is broadcast to the WebSocket clients of the affected
// residence, which re-render from the pushed snapshot.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

// Event is the envelope pushed to clients.
type Event struct {
	Type    string `json:"type"` // "buildings", "page", "toast"
	Dorm    string `json:"dorm"`
	Payload any    `json:"payload"`
	// UserID restricts delivery to one user's connections; empty fans out to
	// the whole residence.
	UserID string `json:"-"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	dorm   string
	userID string
}

// Hub tracks the active connections per residence and fans events out to
// them. Slow consumers are dropped rather than blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool

	upgrader websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and pumps events for one residence-scoped
// connection. userID may be empty for anonymous viewers.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, dorm, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		dorm:   dorm,
		userID: userID,
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	c.readPump(h)
}

// Broadcast delivers the event to every matching connection.
func (h *Hub) Broadcast(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("marshalling %s event: %v", ev.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.dorm != ev.Dorm {
			continue
		}
		if ev.UserID != "" && c.userID != ev.UserID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			log.Printf("dropping %s event for slow client %v", ev.Type, c.conn.RemoteAddr())
		}
	}
}

// ClientCount reports the number of active connections for a residence.
func (h *Hub) ClientCount(dorm string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.dorm == dorm {
			n++
		}
	}
	return n
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards inbound frames; the feed is one-way. It exists to drive
// pong handling and to notice closed connections.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
