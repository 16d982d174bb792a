package main

import (
	"sync"

	"github.com/cineloop/cineloop/common/logger"
)

// Hub maintains active WebSocket connections and broadcasts accepted chain
// entries to all of them. The chain is shared, so every viewer gets every
// event; there is no per-user partitioning.
type Hub struct {
	connections map[*Client]bool
	mutex       sync.RWMutex
	log         *logger.Logger

	// Channel for registering clients
	register chan *Client

	// Channel for unregistering clients
	unregister chan *Client

	// Channel for broadcasting chain events
	broadcast chan []byte
}

// NewHub creates a new Hub instance
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[*Client]bool),
		log:         log,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	h.log.Info("hub started")

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[client] = true
	h.log.Info("client registered",
		"client_id", client.id,
		"total", len(h.connections),
	)
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.connections[client]; !ok {
		return
	}

	delete(h.connections, client)
	close(client.send)

	h.log.Info("client unregistered",
		"client_id", client.id,
		"remaining", len(h.connections),
	)
}

// broadcastToAll sends a chain event to every connected viewer.
// Takes the write lock because slow clients get evicted inline.
func (h *Hub) broadcastToAll(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if len(h.connections) == 0 {
		return
	}

	h.log.Debug("broadcasting chain event", "client_count", len(h.connections))

	for client := range h.connections {
		select {
		case client.send <- message:
			// Message sent successfully
		default:
			// Client's send buffer is full, close the connection
			h.log.Warn("client send buffer full, closing connection", "client_id", client.id)
			close(client.send)
			delete(h.connections, client)
		}
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}
