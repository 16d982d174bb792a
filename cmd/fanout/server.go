package main

import (
	"encoding/json"
	"net/http"

	"github.com/cineloop/cineloop/common/logger"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// latestEntryKey holds a copy of the most recently accepted entry so a
// freshly connected viewer sees the tail without hitting the API first.
const latestEntryKey = "chain:latest"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now (TODO: Configure CORS properly in production)
		return true
	},
}

// Server handles WebSocket connections
type Server struct {
	hub   *Hub
	redis *redis.Client
	log   *logger.Logger
}

// NewServer creates a new Server instance
func NewServer(hub *Hub, redisClient *redis.Client, log *logger.Logger) *Server {
	return &Server{
		hub:   hub,
		redis: redisClient,
		log:   log,
	}
}

// HandleWebSocket handles WebSocket upgrade and registration
// URL: /ws
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := NewClient(s.hub, conn)
	s.hub.register <- client

	s.log.Info("new WebSocket connection",
		"client_id", client.id,
		"remote", r.RemoteAddr,
	)

	// Start client goroutines before replay so the send channel drains
	go client.writePump()
	go client.readPump()

	s.replayLatest(r, client)
}

// replayLatest pushes the most recent accepted entry to a new client, if one
// exists. Best-effort: a miss or a Redis error just means no replay.
func (s *Server) replayLatest(r *http.Request, client *Client) {
	data, err := s.redis.Get(r.Context(), latestEntryKey).Result()
	if err == redis.Nil {
		return
	}
	if err != nil {
		s.log.Warn("failed to load latest entry for replay", "error", err)
		return
	}

	select {
	case client.send <- []byte(data):
	default:
		// Buffer full right after connect should not happen; skip replay
	}
}

// HandleStats reports connection counts
// GET /stats
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"connections": s.hub.ConnectionCount(),
	})
}
