package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id          string
	workspaceID uuid.UUID
	userID      uuid.UUID
	messages    [][]byte
	mu          sync.Mutex
	closed      bool
}

func newMockClient(workspaceID, userID uuid.UUID) *mockClient {
	return &mockClient{
		id:          uuid.New().String(),
		workspaceID: workspaceID,
		userID:      userID,
	}
}

func (m *mockClient) ID() string            { return m.id }
func (m *mockClient) WorkspaceID() uuid.UUID { return m.workspaceID }
func (m *mockClient) UserID() uuid.UUID      { return m.userID }

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func waitForMessages(t *testing.T, c *mockClient, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.messageCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages, got %d", want, c.messageCount())
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	workspaceID := uuid.New()

	c1 := newMockClient(workspaceID, uuid.New())
	c2 := newMockClient(workspaceID, uuid.New())
	other := newMockClient(uuid.New(), uuid.New())

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)

	require.Equal(t, 2, hub.ClientCount(workspaceID))
	require.Equal(t, 3, hub.TotalClientCount())

	hub.Broadcast(workspaceID, PageCreated(map[string]string{"id": "p1"}))

	waitForMessages(t, c1, 1)
	waitForMessages(t, c2, 1)

	// Client in another workspace must not receive anything
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, other.messageCount())
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	// Same user connected to two different workspaces
	s1 := newMockClient(uuid.New(), userID)
	s2 := newMockClient(uuid.New(), userID)
	stranger := newMockClient(uuid.New(), uuid.New())

	hub.Register(s1)
	hub.Register(s2)
	hub.Register(stranger)

	hub.BroadcastToUser(userID, CollaboratorJoined(map[string]string{"inviteId": "inv"}))

	waitForMessages(t, s1, 1)
	waitForMessages(t, s2, 1)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, stranger.messageCount())
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub()
	workspaceID := uuid.New()

	client := newMockClient(workspaceID, uuid.New())
	hub.Register(client)
	require.Equal(t, 1, hub.ClientCount(workspaceID))

	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount(workspaceID))
	assert.Equal(t, 0, hub.TotalClientCount())

	// Broadcast after unregister must not reach the client
	hub.Broadcast(workspaceID, PageDeleted(map[string]string{"id": "p1"}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, client.messageCount())
}

func TestHub_BroadcastEmptyWorkspace(t *testing.T) {
	hub := NewHub()
	// Must not panic
	hub.Broadcast(uuid.New(), PageUpdated(nil))
	hub.BroadcastToUser(uuid.New(), PageUpdated(nil))
}

func TestHub_ConcurrentRegisterBroadcast(t *testing.T) {
	hub := NewHub()
	workspaceID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Register(newMockClient(workspaceID, uuid.New()))
		}()
		go func() {
			defer wg.Done()
			hub.Broadcast(workspaceID, WorkspacePagesStructureChanged(nil))
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, hub.ClientCount(workspaceID))
}
