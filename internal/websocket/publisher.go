package websocket

import "github.com/google/uuid"

// EventPublisher is the change-notifier interface consumed by services.
// Both methods are fire-and-forget: delivery failures are logged by the hub
// and never propagate back to the mutation that triggered them.
type EventPublisher interface {
	// Publish sends an event to all sessions subscribed to the workspace
	Publish(workspaceID uuid.UUID, event Event)
	// PublishToUser sends an event to every session of one user
	PublishToUser(userID uuid.UUID, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting to the workspace
func (h *Hub) Publish(workspaceID uuid.UUID, event Event) {
	h.Broadcast(workspaceID, event)
}

// PublishToUser implements EventPublisher by broadcasting to the user
func (h *Hub) PublishToUser(userID uuid.UUID, event Event) {
	h.BroadcastToUser(userID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when
// WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(workspaceID uuid.UUID, event Event) {}

// PublishToUser does nothing
func (n *NoOpPublisher) PublishToUser(userID uuid.UUID, event Event) {}
