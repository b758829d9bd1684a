package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CombinedType(t *testing.T) {
	event := NewEvent(EventTypeCreated, EntityTypePage, map[string]string{"id": "p1"})

	assert.Equal(t, "page.created", event.Type)
	assert.Equal(t, EntityTypePage, event.Entity)
	assert.False(t, event.Timestamp.IsZero())
}

func TestEvent_ToJSON(t *testing.T) {
	event := PageCreated(map[string]string{"id": "p1", "name": "Home"})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "page.created", decoded["type"])
	assert.Equal(t, "page", decoded["entity"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Home", payload["name"])
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"page created", PageCreated(nil), "page.created"},
		{"page updated", PageUpdated(nil), "page.updated"},
		{"page deleted", PageDeleted(nil), "page.deleted"},
		{"structure changed", WorkspacePagesStructureChanged(nil), "workspace.pages_structure_changed"},
		{"collaborator joined", CollaboratorJoined(nil), "collaborator.joined"},
		{"address bound", AddressBound(nil), "address.created"},
		{"address unbound", AddressUnbound(nil), "address.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Type)
		})
	}
}
