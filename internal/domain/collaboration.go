package domain

import (
	"time"

	"github.com/google/uuid"
)

// GrantScope says whether a collaboration grant covers a single page subtree
// or a whole workspace.
type GrantScope string

const (
	GrantScopePage      GrantScope = "page"
	GrantScopeWorkspace GrantScope = "workspace"
)

// CollabGrant is a durable collaboration membership created by accepting an
// invite. Revoking the invite id does not retract grants already created
// from it. Page-scoped grants are inherited by the whole subtree of the
// granted page.
type CollabGrant struct {
	ID        uuid.UUID  `json:"id"`
	Scope     GrantScope `json:"scope"`
	TargetID  uuid.UUID  `json:"targetId"`
	UserID    uuid.UUID  `json:"userId"`
	InviteID  string     `json:"inviteId"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CollabGrantRepository defines the interface for grant persistence operations
type CollabGrantRepository interface {
	GetByUser(userID uuid.UUID) ([]*CollabGrant, error)
	GetByTarget(scope GrantScope, targetID uuid.UUID) ([]*CollabGrant, error)
	GetByUserAndTarget(userID uuid.UUID, scope GrantScope, targetID uuid.UUID) (*CollabGrant, error)
	// HasWorkspaceGrant reports an accepted workspace-scoped grant.
	HasWorkspaceGrant(userID, workspaceID uuid.UUID) (bool, error)
	// HasPageGrantIn reports an accepted page-scoped grant on any of the
	// given pages (a page plus its ancestors, in practice).
	HasPageGrantIn(userID uuid.UUID, pageIDs []uuid.UUID) (bool, error)
	Create(grant *CollabGrant) (*CollabGrant, error)
	Delete(id uuid.UUID) error
}
