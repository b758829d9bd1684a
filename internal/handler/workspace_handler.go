package handler

import (
	"errors"
	"net/http"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WorkspaceHandler handles workspace-related HTTP requests
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
	pageService      *service.PageService
}

// NewWorkspaceHandler creates a new WorkspaceHandler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService, pageService *service.PageService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		pageService:      pageService,
	}
}

// CreateWorkspaceRequest represents the create workspace request body
type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

// UpdateWorkspaceRequest represents the rename workspace request body
type UpdateWorkspaceRequest struct {
	Name string `json:"name"`
}

// CreateWorkspace handles POST /api/v1/workspaces
func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	workspace, err := h.workspaceService.CreateWorkspace(userID, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create workspace")
		return NewInternalError(c, "Failed to create workspace")
	}

	log.Info().Str("user_id", userID.String()).Str("workspace_id", workspace.ID.String()).Str("name", workspace.Name).Msg("Workspace created")

	return c.JSON(http.StatusCreated, toWorkspaceResponse(workspace))
}

// GetWorkspaces handles GET /api/v1/workspaces
func (h *WorkspaceHandler) GetWorkspaces(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	workspaces, err := h.workspaceService.ListWorkspaces(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list workspaces")
		return NewInternalError(c, "Failed to list workspaces")
	}

	response := make([]WorkspaceResponse, len(workspaces))
	for i, ws := range workspaces {
		response[i] = toWorkspaceResponse(ws)
	}

	return c.JSON(http.StatusOK, response)
}

// GetWorkspace handles GET /api/v1/workspaces/:id
func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid workspace ID", nil)
	}

	workspace, err := h.workspaceService.GetWorkspace(id)
	if err != nil {
		if errors.Is(err, domain.ErrWorkspaceNotFound) || errors.Is(err, domain.ErrWorkspaceIncomplete) {
			return NewNotFoundError(c, "Workspace not found")
		}
		log.Error().Err(err).Str("workspace_id", id.String()).Msg("Failed to get workspace")
		return NewInternalError(c, "Failed to get workspace")
	}

	if workspace.OwnerUserID != userID {
		return NewForbiddenError(c, "Not allowed to access this workspace")
	}

	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// UpdateWorkspace handles PUT /api/v1/workspaces/:id
func (h *WorkspaceHandler) UpdateWorkspace(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid workspace ID", nil)
	}

	if err := h.requireOwner(id, userID); err != nil {
		return h.ownerError(c, err)
	}

	var req UpdateWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	workspace, err := h.workspaceService.RenameWorkspace(id, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNameRequired) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name is required"},
			})
		}
		if errors.Is(err, domain.ErrNameTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "name", Message: "Name must be 255 characters or less"},
			})
		}
		log.Error().Err(err).Str("workspace_id", id.String()).Msg("Failed to rename workspace")
		return NewInternalError(c, "Failed to rename workspace")
	}

	log.Info().Str("workspace_id", id.String()).Str("name", workspace.Name).Msg("Workspace renamed")
	return c.JSON(http.StatusOK, toWorkspaceResponse(workspace))
}

// DeleteWorkspace handles DELETE /api/v1/workspaces/:id
func (h *WorkspaceHandler) DeleteWorkspace(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid workspace ID", nil)
	}

	if err := h.requireOwner(id, userID); err != nil {
		return h.ownerError(c, err)
	}

	if err := h.workspaceService.DeleteWorkspace(id); err != nil {
		log.Error().Err(err).Str("workspace_id", id.String()).Msg("Failed to delete workspace")
		return NewInternalError(c, "Failed to delete workspace")
	}

	log.Info().Str("workspace_id", id.String()).Msg("Workspace deleted")
	return c.NoContent(http.StatusNoContent)
}

// GetWorkspacePages handles GET /api/v1/workspaces/:id/pages
func (h *WorkspaceHandler) GetWorkspacePages(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid workspace ID", nil)
	}

	if err := h.requireOwner(id, userID); err != nil {
		return h.ownerError(c, err)
	}

	pages, err := h.pageService.GetWorkspacePages(id)
	if err != nil {
		log.Error().Err(err).Str("workspace_id", id.String()).Msg("Failed to list workspace pages")
		return NewInternalError(c, "Failed to list workspace pages")
	}

	response := make([]PageResponse, len(pages))
	for i, page := range pages {
		response[i] = toPageResponse(page)
	}

	return c.JSON(http.StatusOK, response)
}

func (h *WorkspaceHandler) requireOwner(workspaceID, userID uuid.UUID) error {
	workspace, err := h.workspaceService.GetWorkspace(workspaceID)
	if err != nil {
		return err
	}
	if workspace.OwnerUserID != userID {
		return domain.ErrForbidden
	}
	return nil
}

func (h *WorkspaceHandler) ownerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Not allowed to manage this workspace")
	case errors.Is(err, domain.ErrWorkspaceNotFound), errors.Is(err, domain.ErrWorkspaceIncomplete):
		return NewNotFoundError(c, "Workspace not found")
	default:
		log.Error().Err(err).Msg("Workspace ownership check failed")
		return NewInternalError(c, "Failed to verify workspace access")
	}
}
