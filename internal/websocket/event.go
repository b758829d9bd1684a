package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the kind of change an event describes
type EventType string

const (
	EventTypeCreated          EventType = "created"
	EventTypeUpdated          EventType = "updated"
	EventTypeDeleted          EventType = "deleted"
	EventTypeStructureChanged EventType = "pages_structure_changed"
	EventTypeJoined           EventType = "joined"
)

// EntityType represents the entity the event is about
type EntityType string

const (
	EntityTypePage         EntityType = "page"
	EntityTypeWorkspace    EntityType = "workspace"
	EntityTypeCollaborator EntityType = "collaborator"
	EntityTypeAddress      EntityType = "address"
)

// Event is a message fanned out to subscribed sessions.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "page.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "page"
	Payload   interface{} `json:"payload"`   // Event data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PageCreated creates a page.created event
func PageCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePage, payload)
}

// PageUpdated creates a page.updated event
func PageUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePage, payload)
}

// PageDeleted creates a page.deleted event
func PageDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePage, payload)
}

// WorkspacePagesStructureChanged creates a workspace.pages_structure_changed
// event; emitted after any reparent, reorder or cross-workspace move so
// subscribed sessions refresh their tree view.
func WorkspacePagesStructureChanged(payload interface{}) Event {
	return NewEvent(EventTypeStructureChanged, EntityTypeWorkspace, payload)
}

// CollaboratorJoined creates a collaborator.joined event
func CollaboratorJoined(payload interface{}) Event {
	return NewEvent(EventTypeJoined, EntityTypeCollaborator, payload)
}

// AddressBound creates an address.created event
func AddressBound(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAddress, payload)
}

// AddressUnbound creates an address.deleted event
func AddressUnbound(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAddress, payload)
}
