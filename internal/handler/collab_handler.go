package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CollabHandler handles collaboration invite and grant HTTP requests
type CollabHandler struct {
	collabService    *service.CollabService
	accessService    *service.AccessService
	workspaceService *service.WorkspaceService
}

// NewCollabHandler creates a new CollabHandler
func NewCollabHandler(collabService *service.CollabService, accessService *service.AccessService, workspaceService *service.WorkspaceService) *CollabHandler {
	return &CollabHandler{
		collabService:    collabService,
		accessService:    accessService,
		workspaceService: workspaceService,
	}
}

// InviteResponse represents a live invite in API responses
type InviteResponse struct {
	InviteID string `json:"inviteId"`
}

// GrantResponse represents an accepted collaboration grant
type GrantResponse struct {
	ID        string `json:"id"`
	Scope     string `json:"scope"`
	TargetID  string `json:"targetId"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// AcceptInviteRequest represents the accept invite request body
type AcceptInviteRequest struct {
	InviteID string `json:"inviteId"`
}

// CreatePageInvite handles POST /api/v1/pages/:id/invites
func (h *CollabHandler) CreatePageInvite(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid page ID", nil)
	}

	if err := h.accessService.Authorize(pageID, userID, domain.ActionInvite); err != nil {
		return h.accessError(c, err)
	}

	inviteID, err := h.collabService.CreatePageInvite(pageID)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to create page invite")
		return NewInternalError(c, "Failed to create invite")
	}

	log.Info().Str("page_id", pageID.String()).Msg("Page invite created")
	return c.JSON(http.StatusCreated, InviteResponse{InviteID: inviteID})
}

// RevokePageInvite handles DELETE /api/v1/pages/:id/invites/:inviteId
func (h *CollabHandler) RevokePageInvite(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid page ID", nil)
	}
	inviteID := c.Param("inviteId")

	if err := h.accessService.Authorize(pageID, userID, domain.ActionRevokeInvite); err != nil {
		return h.accessError(c, err)
	}

	if err := h.collabService.RevokePageInvite(pageID, inviteID); err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			return NewNotFoundError(c, "Invite not found")
		}
		if errors.Is(err, domain.ErrPageNotFound) {
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to revoke page invite")
		return NewInternalError(c, "Failed to revoke invite")
	}

	log.Info().Str("page_id", pageID.String()).Msg("Page invite revoked")
	return c.NoContent(http.StatusNoContent)
}

// CreateWorkspaceInvite handles POST /api/v1/workspaces/:id/invites
func (h *CollabHandler) CreateWorkspaceInvite(c echo.Context) error {
	workspaceID, err := h.authorizedWorkspace(c)
	if err != nil {
		return err
	}

	inviteID, err := h.collabService.CreateWorkspaceInvite(workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to create workspace invite")
		return NewInternalError(c, "Failed to create invite")
	}

	log.Info().Str("workspace_id", workspaceID.String()).Msg("Workspace invite created")
	return c.JSON(http.StatusCreated, InviteResponse{InviteID: inviteID})
}

// RevokeWorkspaceInvite handles DELETE /api/v1/workspaces/:id/invites/:inviteId
func (h *CollabHandler) RevokeWorkspaceInvite(c echo.Context) error {
	workspaceID, err := h.authorizedWorkspace(c)
	if err != nil {
		return err
	}
	inviteID := c.Param("inviteId")

	if err := h.collabService.RevokeWorkspaceInvite(workspaceID, inviteID); err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			return NewNotFoundError(c, "Invite not found")
		}
		if errors.Is(err, domain.ErrWorkspaceNotFound) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to revoke workspace invite")
		return NewInternalError(c, "Failed to revoke invite")
	}

	log.Info().Str("workspace_id", workspaceID.String()).Msg("Workspace invite revoked")
	return c.NoContent(http.StatusNoContent)
}

// AcceptInvite handles POST /api/v1/invites/accept
func (h *CollabHandler) AcceptInvite(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.InviteID == "" {
		return NewValidationError(c, "Invite ID required", []ValidationError{
			{Field: "inviteId", Message: "Invite ID is required"},
		})
	}

	grant, err := h.collabService.AcceptInvite(userID, req.InviteID)
	if err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			return NewNotFoundError(c, "Invite not found")
		}
		if errors.Is(err, domain.ErrSelfInvite) {
			return NewConflictError(c, "Cannot accept an invite to an owned resource")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to accept invite")
		return NewInternalError(c, "Failed to accept invite")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("scope", string(grant.Scope)).
		Str("target_id", grant.TargetID.String()).
		Msg("Invite accepted")

	return c.JSON(http.StatusOK, GrantResponse{
		ID:        grant.ID.String(),
		Scope:     string(grant.Scope),
		TargetID:  grant.TargetID.String(),
		UserID:    grant.UserID.String(),
		CreatedAt: grant.CreatedAt.Format(time.RFC3339),
	})
}

// authorizedWorkspace parses :id and requires the caller to own the workspace
func (h *CollabHandler) authorizedWorkspace(c echo.Context) (uuid.UUID, error) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return uuid.Nil, NewUnauthorizedError(c, "Authentication required")
	}

	workspaceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, NewValidationError(c, "Invalid workspace ID", nil)
	}

	workspace, err := h.workspaceService.GetWorkspace(workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) || errors.Is(err, domain.ErrWorkspaceIncomplete) {
			return uuid.Nil, NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to load workspace")
		return uuid.Nil, NewInternalError(c, "Failed to load workspace")
	}
	if workspace.OwnerUserID != userID {
		return uuid.Nil, NewForbiddenError(c, "Not allowed to manage this workspace")
	}

	return workspaceID, nil
}

func (h *CollabHandler) accessError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Not allowed to perform this action")
	case errors.Is(err, domain.ErrPageNotFound):
		return NewNotFoundError(c, "Page not found")
	case errors.Is(err, domain.ErrWorkspaceNotFound):
		return NewNotFoundError(c, "Workspace not found")
	default:
		log.Error().Err(err).Msg("Authorization check failed")
		return NewInternalError(c, "Failed to authorize request")
	}
}
