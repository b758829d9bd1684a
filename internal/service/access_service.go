package service

import (
	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/google/uuid"
)

// AccessService resolves a user's role with respect to a page and gates
// actions on it. Roles are checked in strictly descending privilege order;
// the first match wins.
type AccessService struct {
	pageRepo      domain.PageRepository
	workspaceRepo domain.WorkspaceRepository
	grantRepo     domain.CollabGrantRepository
}

// NewAccessService creates a new AccessService
func NewAccessService(
	pageRepo domain.PageRepository,
	workspaceRepo domain.WorkspaceRepository,
	grantRepo domain.CollabGrantRepository,
) *AccessService {
	return &AccessService{
		pageRepo:      pageRepo,
		workspaceRepo: workspaceRepo,
		grantRepo:     grantRepo,
	}
}

// RoleOf resolves the user's role for the page. A page-scoped grant on any
// ancestor counts: collaboration is inherited down the subtree, tested via
// mpath membership rather than per-descendant grant rows.
func (s *AccessService) RoleOf(pageID, userID uuid.UUID) (domain.Role, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return domain.RoleGuest, err
	}

	workspace, err := s.workspaceRepo.GetByID(page.WorkspaceID)
	if err != nil {
		return domain.RoleGuest, err
	}

	if workspace.OwnerUserID == userID {
		return domain.RoleOwner, nil
	}

	hasWorkspaceGrant, err := s.grantRepo.HasWorkspaceGrant(userID, workspace.ID)
	if err != nil {
		return domain.RoleGuest, err
	}
	if hasWorkspaceGrant {
		return domain.RoleWorkspaceCollaborator, nil
	}

	chain := append(page.AncestorIDs(), page.ID)
	hasPageGrant, err := s.grantRepo.HasPageGrantIn(userID, chain)
	if err != nil {
		return domain.RoleGuest, err
	}
	if hasPageGrant {
		return domain.RolePageCollaborator, nil
	}

	return domain.RoleGuest, nil
}

// CanSubscribe reports whether the user may receive live events for the
// workspace: owners and workspace collaborators only. Page collaborators
// get targeted user events instead of the workspace feed.
func (s *AccessService) CanSubscribe(userID, workspaceID uuid.UUID) (bool, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return false, err
	}
	if workspace.OwnerUserID == userID {
		return true, nil
	}
	return s.grantRepo.HasWorkspaceGrant(userID, workspaceID)
}

// CanPerform reports whether the role may perform the action
func (s *AccessService) CanPerform(role domain.Role, action domain.Action) bool {
	return domain.CanPerform(role, action)
}

// Authorize resolves the role and checks it against the action table.
// A missing page surfaces as ErrPageNotFound before the table is consulted,
// so authorization failures never leak page existence.
func (s *AccessService) Authorize(pageID, userID uuid.UUID, action domain.Action) error {
	role, err := s.RoleOf(pageID, userID)
	if err != nil {
		return err
	}
	if !domain.CanPerform(role, action) {
		return domain.ErrForbidden
	}
	return nil
}
