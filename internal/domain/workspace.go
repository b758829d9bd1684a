package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workspace is a tenant boundary owning a forest of pages. Every complete
// workspace has exactly two root pages: one for the private zone and one for
// the public zone. A workspace missing either root is mid-creation and must
// not be exposed by list or get operations.
type Workspace struct {
	ID                     uuid.UUID  `json:"id"`
	OwnerUserID            uuid.UUID  `json:"ownerUserId"`
	Name                   string     `json:"name"`
	PrivateRootPageID      *uuid.UUID `json:"privateRootPageId"`
	PublicRootPageID       *uuid.UUID `json:"publicRootPageId"`
	CollaborationInviteIDs []string   `json:"collaborationInviteIds"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// IsComplete reports whether both root pages exist.
func (w *Workspace) IsComplete() bool {
	return w.PrivateRootPageID != nil && w.PublicRootPageID != nil
}

// HasInvite reports whether the given invite id is live on this workspace.
func (w *Workspace) HasInvite(inviteID string) bool {
	for _, id := range w.CollaborationInviteIDs {
		if id == inviteID {
			return true
		}
	}
	return false
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(id uuid.UUID) (*Workspace, error)
	GetByOwner(ownerUserID uuid.UUID) ([]*Workspace, error)
	GetByInviteID(inviteID string) (*Workspace, error)
	Create(workspace *Workspace) (*Workspace, error)
	Update(workspace *Workspace) (*Workspace, error)
	// Delete removes the workspace row. Pages must already be gone; callers
	// go through DeleteAllInWorkspace on the page repository first.
	Delete(id uuid.UUID) error
}
