package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	WorkspaceID() uuid.UUID
	UserID() uuid.UUID
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections indexed by subscribed workspace and by
// user. It is safe for concurrent use.
type Hub struct {
	// workspaces maps workspace id to a map of client id to client
	workspaces map[uuid.UUID]map[string]ClientInterface
	// users maps user id to a map of client id to client
	users map[uuid.UUID]map[string]ClientInterface
	mu    sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		workspaces: make(map[uuid.UUID]map[string]ClientInterface),
		users:      make(map[uuid.UUID]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its workspace and user
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	userID := client.UserID()
	clientID := client.ID()

	if h.workspaces[workspaceID] == nil {
		h.workspaces[workspaceID] = make(map[string]ClientInterface)
	}
	h.workspaces[workspaceID][clientID] = client

	if h.users[userID] == nil {
		h.users[userID] = make(map[string]ClientInterface)
	}
	h.users[userID][clientID] = client

	log.Debug().
		Str("workspace_id", workspaceID.String()).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := client.WorkspaceID()
	userID := client.UserID()
	clientID := client.ID()

	if clients, ok := h.workspaces[workspaceID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(h.workspaces, workspaceID)
		}
	}
	if clients, ok := h.users[userID]; ok {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(h.users, userID)
		}
	}

	log.Debug().
		Str("workspace_id", workspaceID.String()).
		Str("client_id", clientID).
		Msg("WebSocket client unregistered")
}

// Broadcast sends an event to all clients subscribed to a workspace
func (h *Hub) Broadcast(workspaceID uuid.UUID, event Event) {
	h.mu.RLock()
	targets := h.snapshot(h.workspaces[workspaceID])
	h.mu.RUnlock()

	h.deliver(targets, event, "workspace_id", workspaceID)
}

// BroadcastToUser sends an event to every session of a single user
func (h *Hub) BroadcastToUser(userID uuid.UUID, event Event) {
	h.mu.RLock()
	targets := h.snapshot(h.users[userID])
	h.mu.RUnlock()

	h.deliver(targets, event, "user_id", userID)
}

// snapshot copies a client set so the lock is not held during sends.
// Callers must hold at least a read lock.
func (h *Hub) snapshot(clients map[string]ClientInterface) []ClientInterface {
	if len(clients) == 0 {
		return nil
	}
	out := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		out = append(out, client)
	}
	return out
}

func (h *Hub) deliver(targets []ClientInterface, event Event, keyField string, key uuid.UUID) {
	if len(targets) == 0 {
		return
	}

	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str(keyField, key.String()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	for _, client := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str(keyField, key.String()).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str(keyField, key.String()).
		Str("event_type", event.Type).
		Int("client_count", len(targets)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients subscribed to a workspace
func (h *Hub) ClientCount(workspaceID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.workspaces[workspaceID])
}

// TotalClientCount returns the total number of connected clients
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}
