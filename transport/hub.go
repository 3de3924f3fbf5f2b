// Package transport is the HTTP and websocket surface. The hub implements
// the outbound bus: one private channel per connected user plus a shared
// broadcast channel. Everything here is best-effort; a slow or absent
// client loses pushes instead of stalling the core.
package transport

import (
	"encoding/json"
	"log/slog"
	"sync"
)

type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // userID -> current client
	log        *slog.Logger
	bufferSize int
}

// Client is one websocket session's outbound queue. The done channel stops
// the writer; the send channel is never closed so concurrent pushes are safe.
type Client struct {
	UserID string
	ConnID string
	Send   chan []byte
	Done   chan struct{}
}

func NewHub(log *slog.Logger, bufferSize int) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		log:        log,
		bufferSize: bufferSize,
	}
}

// Register installs the session as the user's current client, displacing a
// previous one. The displaced client's writer is told to stop; its socket
// close will later hit the presence registry's stale-disconnect guard.
func (h *Hub) Register(userID, connID string) *Client {
	client := &Client{
		UserID: userID,
		ConnID: connID,
		Send:   make(chan []byte, h.bufferSize),
		Done:   make(chan struct{}),
	}
	h.mu.Lock()
	if previous, ok := h.clients[userID]; ok {
		close(previous.Done)
	}
	h.clients[userID] = client
	h.mu.Unlock()
	return client
}

// Unregister removes the client only if it is still the one on record, then
// stops its writer. A displaced client was already removed by Register.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.UserID]
	if ok && current.ConnID == client.ConnID {
		delete(h.clients, client.UserID)
		close(client.Done)
	}
	h.mu.Unlock()
}

// PushToUser drops the payload when the user has no session or a full queue.
func (h *Hub) PushToUser(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Unmarshalable payload", "error", err)
		return
	}
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
		h.log.Debug("Client queue full, dropping push", "user", userID)
	}
}

// Broadcast pushes to every connected client's private queue.
func (h *Hub) Broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Unmarshalable payload", "error", err)
		return
	}
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		snapshot = append(snapshot, client)
	}
	h.mu.RUnlock()

	for _, client := range snapshot {
		select {
		case client.Send <- data:
		default:
			h.log.Debug("Client queue full, dropping broadcast", "user", client.UserID)
		}
	}
}
