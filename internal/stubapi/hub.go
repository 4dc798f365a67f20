package stubapi

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"campusdate/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub tracks one websocket connection per user and pushes change events
type Hub struct {
	mu          sync.RWMutex
	connections map[int64]*websocket.Conn
	writeMu     map[int64]*sync.Mutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*websocket.Conn),
		writeMu:     make(map[int64]*sync.Mutex),
	}
}

// Register registers a connection for a user, closing any previous one
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn
	h.writeMu[userID] = &sync.Mutex{}

	log.Info().Int64("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection of a user if it is still conn
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.connections[userID]; ok && current == conn {
		current.Close()
		delete(h.connections, userID)
		delete(h.writeMu, userID)
		log.Info().Int64("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// IsOnline reports whether a user has a live connection
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends an event to a specific user
func (h *Hub) SendToUser(userID int64, event models.Event) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	mu := h.writeMu[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %d is not connected", userID)
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	mu.Unlock()
	if err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send event: %w", err)
	}
	return nil
}

// Notify sends event to every online user in userIDs
func (h *Hub) Notify(event models.Event, userIDs ...int64) {
	for _, id := range userIDs {
		if !h.IsOnline(id) {
			continue
		}
		if err := h.SendToUser(id, event); err != nil {
			log.Error().
				Err(err).
				Int64("user_id", id).
				Str("type", event.Type).
				Msg("Failed to push event")
		}
	}
}

// Close drops every connection
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
		delete(h.writeMu, id)
	}
}
