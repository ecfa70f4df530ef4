// Package gateway fans delivered alerts out to WebSocket clients. New
// clients receive the most recent alerts as initial state, then live
// alerts as they fire.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BalachandraRaju/finns-sub002/internal/model"
)

// recentSize is how many delivered alerts the hub retains for the initial
// state sent to a newly connected client.
const recentSize = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-host deployment; the frontend is served from the same origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// envelope is the wire shape sent to WS clients.
type envelope struct {
	Symbol  string             `json:"symbol"`
	Alert   model.AlertPayload `json:"alert"`
	TS      string             `json:"ts"`
	Initial bool               `json:"initial,omitempty"`
}

// Hub manages WebSocket clients and the recent-alert ring.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	recent  []envelope // oldest first, capped at recentSize
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Publish records the alert and fans it out to every connected client.
// Clients with a full send queue are skipped, never blocked on.
func (h *Hub) Publish(symbol string, p model.AlertPayload) {
	env := envelope{
		Symbol: symbol,
		Alert:  p,
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[gateway] marshal alert for %s: %v", symbol, err)
		return
	}

	h.mu.Lock()
	h.recent = append(h.recent, env)
	if len(h.recent) > recentSize {
		h.recent = h.recent[len(h.recent)-recentSize:]
	}
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	client.queueInitialState()
	go client.writePump()
	go client.readPump()
}

// removeClient unregisters a client and closes its send queue.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Recent returns a copy of the retained alerts, oldest first.
func (h *Hub) Recent() []envelope {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]envelope, len(h.recent))
	copy(out, h.recent)
	return out
}
