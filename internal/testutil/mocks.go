package testutil

import (
	"sync"
	"time"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	Users map[string]*domain.User
	ByID  map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users: make(map[string]*domain.User),
		ByID:  make(map[uuid.UUID]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByAuth0ID retrieves a user by Auth0 ID
func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// Update updates an existing user
func (m *MockUserRepository) Update(user *domain.User) (*domain.User, error) {
	if _, ok := m.ByID[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	m.Users[user.Auth0ID] = user
	m.ByID[user.ID] = user
	return user, nil
}

// CreateOrGetByAuth0ID creates or retrieves a user by Auth0 ID
func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name, pictureURL *string) (*domain.User, error) {
	if user, ok := m.Users[auth0ID]; ok {
		return user, nil
	}
	return m.Create(&domain.User{Auth0ID: auth0ID, Email: email, Name: name, PictureURL: pictureURL})
}

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces map[uuid.UUID]*domain.Workspace
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{Workspaces: make(map[uuid.UUID]*domain.Workspace)}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id uuid.UUID) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByOwner retrieves all workspaces owned by a user
func (m *MockWorkspaceRepository) GetByOwner(ownerUserID uuid.UUID) ([]*domain.Workspace, error) {
	var out []*domain.Workspace
	for _, ws := range m.Workspaces {
		if ws.OwnerUserID == ownerUserID {
			out = append(out, ws)
		}
	}
	return out, nil
}

// GetByInviteID retrieves the workspace carrying a live invite id
func (m *MockWorkspaceRepository) GetByInviteID(inviteID string) (*domain.Workspace, error) {
	for _, ws := range m.Workspaces {
		if ws.HasInvite(inviteID) {
			return ws, nil
		}
	}
	return nil, domain.ErrWorkspaceNotFound
}

// Create creates a new workspace
func (m *MockWorkspaceRepository) Create(ws *domain.Workspace) (*domain.Workspace, error) {
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	ws.CreatedAt = time.Now()
	m.Workspaces[ws.ID] = ws
	return ws, nil
}

// Update updates an existing workspace
func (m *MockWorkspaceRepository) Update(ws *domain.Workspace) (*domain.Workspace, error) {
	if _, ok := m.Workspaces[ws.ID]; !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	m.Workspaces[ws.ID] = ws
	return ws, nil
}

// Delete deletes a workspace by ID
func (m *MockWorkspaceRepository) Delete(id uuid.UUID) error {
	delete(m.Workspaces, id)
	return nil
}

// MockPageRepository is an in-memory implementation of domain.PageRepository.
// Mpath-prefix queries are answered by substring containment, mirroring the
// store's "path contains id" predicate.
type MockPageRepository struct {
	Pages map[uuid.UUID]*domain.Page

	// Grants and Addresses are cascaded by DeleteSubtree and
	// DeleteAllInWorkspace when set, matching the real repository.
	Grants    *MockCollabGrantRepository
	Addresses *MockPublicAddressRepository

	// SaveAllErr, when set, is returned by SaveAll to simulate a failed
	// transaction (nothing is applied).
	SaveAllErr error
}

// NewMockPageRepository creates a new MockPageRepository
func NewMockPageRepository() *MockPageRepository {
	return &MockPageRepository{Pages: make(map[uuid.UUID]*domain.Page)}
}

// GetByID retrieves a page by ID
func (m *MockPageRepository) GetByID(id uuid.UUID) (*domain.Page, error) {
	if p, ok := m.Pages[id]; ok {
		return p, nil
	}
	return nil, domain.ErrPageNotFound
}

// GetByShortID retrieves a page by short id
func (m *MockPageRepository) GetByShortID(shortID string) (*domain.Page, error) {
	for _, p := range m.Pages {
		if p.ShortID == shortID {
			return p, nil
		}
	}
	return nil, domain.ErrPageNotFound
}

// GetByIDs retrieves pages by their ids, skipping missing ones
func (m *MockPageRepository) GetByIDs(ids []uuid.UUID) ([]*domain.Page, error) {
	var out []*domain.Page
	for _, id := range ids {
		if p, ok := m.Pages[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByWorkspace retrieves all pages in a workspace
func (m *MockPageRepository) GetByWorkspace(workspaceID uuid.UUID) ([]*domain.Page, error) {
	var out []*domain.Page
	for _, p := range m.Pages {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByInviteID retrieves the page carrying a live invite id
func (m *MockPageRepository) GetByInviteID(inviteID string) (*domain.Page, error) {
	for _, p := range m.Pages {
		if p.HasInvite(inviteID) {
			return p, nil
		}
	}
	return nil, domain.ErrPageNotFound
}

// GetDescendants retrieves every strict descendant of the page
func (m *MockPageRepository) GetDescendants(id uuid.UUID) ([]*domain.Page, error) {
	var out []*domain.Page
	for _, p := range m.Pages {
		if p.HasAncestor(id) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByCustomLink retrieves pages under a root ancestor carrying the link
func (m *MockPageRepository) GetByCustomLink(rootAncestorID uuid.UUID, link string) ([]*domain.Page, error) {
	var out []*domain.Page
	for _, p := range m.Pages {
		if p.CustomLink == nil || *p.CustomLink != link {
			continue
		}
		if p.RootAncestorID() == rootAncestorID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Create inserts a page
func (m *MockPageRepository) Create(page *domain.Page) (*domain.Page, error) {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	if _, err := m.GetByShortID(page.ShortID); err == nil {
		return nil, domain.ErrShortIDCollision
	}
	page.CreatedAt = time.Now()
	m.Pages[page.ID] = page
	return page, nil
}

// CreateWithParent inserts the page and saves the parent's childrenOrder
func (m *MockPageRepository) CreateWithParent(page *domain.Page, parent *domain.Page) (*domain.Page, error) {
	created, err := m.Create(page)
	if err != nil {
		return nil, err
	}
	m.Pages[parent.ID] = parent
	return created, nil
}

// Update updates an existing page
func (m *MockPageRepository) Update(page *domain.Page) (*domain.Page, error) {
	if _, ok := m.Pages[page.ID]; !ok {
		return nil, domain.ErrPageNotFound
	}
	m.Pages[page.ID] = page
	return page, nil
}

// SaveAll persists a batch of pages
func (m *MockPageRepository) SaveAll(pages []*domain.Page) error {
	if m.SaveAllErr != nil {
		return m.SaveAllErr
	}
	for _, p := range pages {
		m.Pages[p.ID] = p
	}
	return nil
}

// DeleteSubtree removes the page, its descendants, their grants and any
// bound public address, and saves the parent's childrenOrder
func (m *MockPageRepository) DeleteSubtree(page *domain.Page, parent *domain.Page) error {
	m.Pages[parent.ID] = parent
	doomed := []uuid.UUID{page.ID}
	for _, p := range m.Pages {
		if p.HasAncestor(page.ID) {
			doomed = append(doomed, p.ID)
		}
	}
	for _, id := range doomed {
		if m.Grants != nil {
			m.Grants.deleteByTarget(domain.GrantScopePage, id)
		}
		if m.Addresses != nil {
			m.Addresses.deleteByRootPage(id)
		}
		delete(m.Pages, id)
	}
	return nil
}

// DeleteAllInWorkspace bulk-removes grants, addresses and pages
func (m *MockPageRepository) DeleteAllInWorkspace(workspaceID uuid.UUID) error {
	for id, p := range m.Pages {
		if p.WorkspaceID != workspaceID {
			continue
		}
		if m.Grants != nil {
			m.Grants.deleteByTarget(domain.GrantScopePage, id)
		}
		if m.Addresses != nil {
			m.Addresses.deleteByRootPage(id)
		}
		delete(m.Pages, id)
	}
	if m.Grants != nil {
		m.Grants.deleteByTarget(domain.GrantScopeWorkspace, workspaceID)
	}
	return nil
}

// MockCollabGrantRepository is a mock implementation of domain.CollabGrantRepository
type MockCollabGrantRepository struct {
	Grants map[uuid.UUID]*domain.CollabGrant
}

// NewMockCollabGrantRepository creates a new MockCollabGrantRepository
func NewMockCollabGrantRepository() *MockCollabGrantRepository {
	return &MockCollabGrantRepository{Grants: make(map[uuid.UUID]*domain.CollabGrant)}
}

// GetByUser retrieves all grants held by a user
func (m *MockCollabGrantRepository) GetByUser(userID uuid.UUID) ([]*domain.CollabGrant, error) {
	var out []*domain.CollabGrant
	for _, g := range m.Grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

// GetByTarget retrieves all grants on a target
func (m *MockCollabGrantRepository) GetByTarget(scope domain.GrantScope, targetID uuid.UUID) ([]*domain.CollabGrant, error) {
	var out []*domain.CollabGrant
	for _, g := range m.Grants {
		if g.Scope == scope && g.TargetID == targetID {
			out = append(out, g)
		}
	}
	return out, nil
}

// GetByUserAndTarget retrieves a user's grant on a target
func (m *MockCollabGrantRepository) GetByUserAndTarget(userID uuid.UUID, scope domain.GrantScope, targetID uuid.UUID) (*domain.CollabGrant, error) {
	for _, g := range m.Grants {
		if g.UserID == userID && g.Scope == scope && g.TargetID == targetID {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}

// HasWorkspaceGrant reports an accepted workspace-scoped grant
func (m *MockCollabGrantRepository) HasWorkspaceGrant(userID, workspaceID uuid.UUID) (bool, error) {
	_, err := m.GetByUserAndTarget(userID, domain.GrantScopeWorkspace, workspaceID)
	return err == nil, nil
}

// HasPageGrantIn reports an accepted page-scoped grant on any given page
func (m *MockCollabGrantRepository) HasPageGrantIn(userID uuid.UUID, pageIDs []uuid.UUID) (bool, error) {
	for _, id := range pageIDs {
		if _, err := m.GetByUserAndTarget(userID, domain.GrantScopePage, id); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// Create creates a new grant
func (m *MockCollabGrantRepository) Create(grant *domain.CollabGrant) (*domain.CollabGrant, error) {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	grant.CreatedAt = time.Now()
	m.Grants[grant.ID] = grant
	return grant, nil
}

// Delete deletes a grant by ID
func (m *MockCollabGrantRepository) Delete(id uuid.UUID) error {
	delete(m.Grants, id)
	return nil
}

func (m *MockCollabGrantRepository) deleteByTarget(scope domain.GrantScope, targetID uuid.UUID) {
	for id, g := range m.Grants {
		if g.Scope == scope && g.TargetID == targetID {
			delete(m.Grants, id)
		}
	}
}

// MockPublicAddressRepository is a mock implementation of domain.PublicAddressRepository
type MockPublicAddressRepository struct {
	Addresses map[uuid.UUID]*domain.PublicAddress
}

// NewMockPublicAddressRepository creates a new MockPublicAddressRepository
func NewMockPublicAddressRepository() *MockPublicAddressRepository {
	return &MockPublicAddressRepository{Addresses: make(map[uuid.UUID]*domain.PublicAddress)}
}

// GetByID retrieves an address by ID
func (m *MockPublicAddressRepository) GetByID(id uuid.UUID) (*domain.PublicAddress, error) {
	if a, ok := m.Addresses[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAddressNotFound
}

// GetByRootPage retrieves the address bound to a top-level page
func (m *MockPublicAddressRepository) GetByRootPage(rootPageID uuid.UUID) (*domain.PublicAddress, error) {
	for _, a := range m.Addresses {
		if a.RootPageID == rootPageID {
			return a, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

// GetBySubdomain retrieves an address by subdomain
func (m *MockPublicAddressRepository) GetBySubdomain(subdomain string) (*domain.PublicAddress, error) {
	for _, a := range m.Addresses {
		if a.Subdomain != nil && *a.Subdomain == subdomain {
			return a, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

// GetByExternalDomain retrieves an address by custom domain
func (m *MockPublicAddressRepository) GetByExternalDomain(dom string) (*domain.PublicAddress, error) {
	for _, a := range m.Addresses {
		if a.ExternalDomain != nil && *a.ExternalDomain == dom {
			return a, nil
		}
	}
	return nil, domain.ErrAddressNotFound
}

// GetByOwner retrieves all addresses owned by a user
func (m *MockPublicAddressRepository) GetByOwner(ownerID uuid.UUID) ([]*domain.PublicAddress, error) {
	var out []*domain.PublicAddress
	for _, a := range m.Addresses {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Create creates a new address
func (m *MockPublicAddressRepository) Create(address *domain.PublicAddress) (*domain.PublicAddress, error) {
	if address.ID == uuid.Nil {
		address.ID = uuid.New()
	}
	address.CreatedAt = time.Now()
	m.Addresses[address.ID] = address
	return address, nil
}

// Delete deletes an address by ID
func (m *MockPublicAddressRepository) Delete(id uuid.UUID) error {
	delete(m.Addresses, id)
	return nil
}

func (m *MockPublicAddressRepository) deleteByRootPage(rootPageID uuid.UUID) {
	for id, a := range m.Addresses {
		if a.RootPageID == rootPageID {
			delete(m.Addresses, id)
		}
	}
}

// MockEventPublisher captures published events for assertions
type MockEventPublisher struct {
	mu        sync.Mutex
	Workspace map[uuid.UUID][]websocket.Event
	User      map[uuid.UUID][]websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		Workspace: make(map[uuid.UUID][]websocket.Event),
		User:      make(map[uuid.UUID][]websocket.Event),
	}
}

// Publish records a workspace event
func (m *MockEventPublisher) Publish(workspaceID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Workspace[workspaceID] = append(m.Workspace[workspaceID], event)
}

// PublishToUser records a user event
func (m *MockEventPublisher) PublishToUser(userID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.User[userID] = append(m.User[userID], event)
}

// WorkspaceEvents returns the events published to a workspace
func (m *MockEventPublisher) WorkspaceEvents(workspaceID uuid.UUID) []websocket.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]websocket.Event(nil), m.Workspace[workspaceID]...)
}

// UserEvents returns the events published to a user
func (m *MockEventPublisher) UserEvents(userID uuid.UUID) []websocket.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]websocket.Event(nil), m.User[userID]...)
}
