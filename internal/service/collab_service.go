package service

import (
	"errors"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CollaboratorJoinedPayload notifies an owner that an invite was accepted
type CollaboratorJoinedPayload struct {
	Scope    domain.GrantScope `json:"scope"`
	TargetID uuid.UUID         `json:"targetId"`
	UserID   uuid.UUID         `json:"userId"`
	InviteID string            `json:"inviteId"`
}

// CollabService manages collaboration invites and the durable grants created
// by accepting them. Revoking an invite never retracts grants already
// accepted from it.
type CollabService struct {
	pageRepo       domain.PageRepository
	workspaceRepo  domain.WorkspaceRepository
	grantRepo      domain.CollabGrantRepository
	eventPublisher websocket.EventPublisher
	entitlements   domain.Entitlements
}

// NewCollabService creates a new CollabService
func NewCollabService(
	pageRepo domain.PageRepository,
	workspaceRepo domain.WorkspaceRepository,
	grantRepo domain.CollabGrantRepository,
) *CollabService {
	return &CollabService{
		pageRepo:      pageRepo,
		workspaceRepo: workspaceRepo,
		grantRepo:     grantRepo,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *CollabService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetEntitlements sets the billing capability gate. Without one, all
// invites are allowed.
func (s *CollabService) SetEntitlements(entitlements domain.Entitlements) {
	s.entitlements = entitlements
}

// CreatePageInvite appends a fresh invite id to the page's invite set.
// Many invite ids may be live at once.
func (s *CollabService) CreatePageInvite(pageID uuid.UUID) (string, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return "", err
	}

	if s.entitlements != nil {
		workspace, err := s.workspaceRepo.GetByID(page.WorkspaceID)
		if err != nil {
			return "", err
		}
		if !s.entitlements.CanInviteToCollabPage(workspace.OwnerUserID) {
			return "", domain.ErrForbidden
		}
	}

	inviteID := uuid.New().String()
	page.CollaborationInviteIDs = append(page.CollaborationInviteIDs, inviteID)
	if _, err := s.pageRepo.Update(page); err != nil {
		return "", err
	}
	return inviteID, nil
}

// CreateWorkspaceInvite appends a fresh invite id to the workspace's invite set
func (s *CollabService) CreateWorkspaceInvite(workspaceID uuid.UUID) (string, error) {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return "", err
	}

	inviteID := uuid.New().String()
	workspace.CollaborationInviteIDs = append(workspace.CollaborationInviteIDs, inviteID)
	if _, err := s.workspaceRepo.Update(workspace); err != nil {
		return "", err
	}
	return inviteID, nil
}

// RevokePageInvite removes a live invite id from a page. Grants already
// created from it survive.
func (s *CollabService) RevokePageInvite(pageID uuid.UUID, inviteID string) error {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return err
	}
	if !page.HasInvite(inviteID) {
		return domain.ErrInviteNotFound
	}
	page.CollaborationInviteIDs = removeString(page.CollaborationInviteIDs, inviteID)
	_, err = s.pageRepo.Update(page)
	return err
}

// RevokeWorkspaceInvite removes a live invite id from a workspace
func (s *CollabService) RevokeWorkspaceInvite(workspaceID uuid.UUID, inviteID string) error {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return err
	}
	if !workspace.HasInvite(inviteID) {
		return domain.ErrInviteNotFound
	}
	workspace.CollaborationInviteIDs = removeString(workspace.CollaborationInviteIDs, inviteID)
	_, err = s.workspaceRepo.Update(workspace)
	return err
}

// AcceptInvite resolves the invite's target and creates a grant for the user.
// Accepting twice is a no-op; accepting an invite to a resource the user
// already owns is rejected.
func (s *CollabService) AcceptInvite(userID uuid.UUID, inviteID string) (*domain.CollabGrant, error) {
	// Page invites first, then workspace invites
	if page, err := s.pageRepo.GetByInviteID(inviteID); err == nil {
		workspace, err := s.workspaceRepo.GetByID(page.WorkspaceID)
		if err != nil {
			return nil, err
		}
		return s.accept(userID, domain.GrantScopePage, page.ID, workspace.OwnerUserID, inviteID)
	} else if !errors.Is(err, domain.ErrPageNotFound) {
		return nil, err
	}

	if workspace, err := s.workspaceRepo.GetByInviteID(inviteID); err == nil {
		return s.accept(userID, domain.GrantScopeWorkspace, workspace.ID, workspace.OwnerUserID, inviteID)
	} else if !errors.Is(err, domain.ErrWorkspaceNotFound) {
		return nil, err
	}

	return nil, domain.ErrInviteNotFound
}

func (s *CollabService) accept(userID uuid.UUID, scope domain.GrantScope, targetID, ownerID uuid.UUID, inviteID string) (*domain.CollabGrant, error) {
	if ownerID == userID {
		return nil, domain.ErrSelfInvite
	}

	if existing, err := s.grantRepo.GetByUserAndTarget(userID, scope, targetID); err == nil {
		// Already accepted
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	grant, err := s.grantRepo.Create(&domain.CollabGrant{
		Scope:    scope,
		TargetID: targetID,
		UserID:   userID,
		InviteID: inviteID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("scope", string(scope)).
		Str("target_id", targetID.String()).
		Str("user_id", userID.String()).
		Msg("Collaboration invite accepted")

	if s.eventPublisher != nil {
		s.eventPublisher.PublishToUser(ownerID, websocket.CollaboratorJoined(CollaboratorJoinedPayload{
			Scope:    scope,
			TargetID: targetID,
			UserID:   userID,
			InviteID: inviteID,
		}))
	}

	return grant, nil
}

func removeString(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
