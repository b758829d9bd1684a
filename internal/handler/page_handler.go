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

// PageHandler handles page-related HTTP requests
type PageHandler struct {
	pageService     *service.PageService
	accessService   *service.AccessService
	resolverService *service.ResolverService
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(pageService *service.PageService, accessService *service.AccessService, resolverService *service.ResolverService) *PageHandler {
	return &PageHandler{
		pageService:     pageService,
		accessService:   accessService,
		resolverService: resolverService,
	}
}

// CreatePageRequest represents the create page request body
type CreatePageRequest struct {
	WorkspaceID string `json:"workspaceId"`
	ParentID    string `json:"parentId"`
	Name        string `json:"name"`
}

// MovePageRequest represents the move page request body
type MovePageRequest struct {
	NewParentID *string `json:"newParentId"`
	Position    *int    `json:"position"`
}

// MoveToWorkspaceRequest represents the move-to-workspace request body
type MoveToWorkspaceRequest struct {
	TargetWorkspaceID string `json:"targetWorkspaceId"`
}

// UpdateTitleRequest represents the title update request body
type UpdateTitleRequest struct {
	Name string `json:"name"`
}

// UpdateContentRequest represents the content update request body
type UpdateContentRequest struct {
	Content string `json:"content"`
}

// UpdateStylesRequest represents the styles update request body
type UpdateStylesRequest struct {
	StylesScss *string `json:"stylesScss"`
}

// UpdateHeadTagsRequest represents the head tags update request body
type UpdateHeadTagsRequest struct {
	HeadTags *string `json:"headTags"`
}

// UpdateCustomLinkRequest represents the custom link update request body
type UpdateCustomLinkRequest struct {
	CustomLink *string `json:"customLink"`
}

// PageResponse represents a page in API responses
type PageResponse struct {
	ID            string   `json:"id"`
	WorkspaceID   string   `json:"workspaceId"`
	ParentID      *string  `json:"parentId"`
	Name          string   `json:"name"`
	ShortID       string   `json:"shortId"`
	CustomLink    *string  `json:"customLink"`
	Content       string   `json:"content"`
	StylesScss    *string  `json:"stylesScss"`
	ThemeID       *string  `json:"themeId"`
	RootKind      string   `json:"rootKind,omitempty"`
	ChildrenOrder []string `json:"childrenOrder"`
	HeadTags      *string  `json:"headTags"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// PagePathResponse represents a page's resolved location
type PagePathResponse struct {
	Path          string `json:"path"`
	CanonicalLink string `json:"canonicalLink"`
}

// CreatePage handles POST /api/v1/pages
func (h *PageHandler) CreatePage(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreatePageRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	workspaceID, err := uuid.Parse(req.WorkspaceID)
	if err != nil {
		return NewValidationError(c, "Invalid workspace ID", []ValidationError{
			{Field: "workspaceId", Message: "Must be a valid UUID"},
		})
	}
	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		return NewValidationError(c, "Invalid parent ID", []ValidationError{
			{Field: "parentId", Message: "Must be a valid UUID"},
		})
	}

	// Creating under a parent requires manage rights on that parent
	if err := h.accessService.Authorize(parentID, userID, domain.ActionCreatePage); err != nil {
		return h.accessError(c, err)
	}

	page, err := h.pageService.CreatePage(workspaceID, service.CreatePageInput{
		Name:     req.Name,
		ParentID: parentID,
	})
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
		if errors.Is(err, domain.ErrParentOutsideWorkspace) {
			return NewValidationError(c, "Parent belongs to a different workspace", []ValidationError{
				{Field: "parentId", Message: "Parent must be in the same workspace"},
			})
		}
		if errors.Is(err, domain.ErrPageNotFound) {
			return NewNotFoundError(c, "Parent page not found")
		}
		log.Error().Err(err).Str("workspace_id", workspaceID.String()).Msg("Failed to create page")
		return NewInternalError(c, "Failed to create page")
	}

	log.Info().Str("workspace_id", workspaceID.String()).Str("page_id", page.ID.String()).Str("name", page.Name).Msg("Page created")

	return c.JSON(http.StatusCreated, toPageResponse(page))
}

// GetPage handles GET /api/v1/pages/:id
func (h *PageHandler) GetPage(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionReadPage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// GetPagePath handles GET /api/v1/pages/:id/path
func (h *PageHandler) GetPagePath(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionReadPage)
	if err != nil {
		return err
	}

	path, err := h.resolverService.PagePath(page)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to resolve page path")
		return NewInternalError(c, "Failed to resolve page path")
	}

	link, err := h.resolverService.CanonicalLink(page)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to resolve canonical link")
		return NewInternalError(c, "Failed to resolve canonical link")
	}

	return c.JSON(http.StatusOK, PagePathResponse{
		Path:          path,
		CanonicalLink: link,
	})
}

// MovePage handles PATCH /api/v1/pages/:id/move
func (h *PageHandler) MovePage(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionMovePage)
	if err != nil {
		return err
	}

	var req MovePageRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.MovePageInput{Position: req.Position}
	if req.NewParentID != nil {
		parentID, err := uuid.Parse(*req.NewParentID)
		if err != nil {
			return NewValidationError(c, "Invalid parent ID", []ValidationError{
				{Field: "newParentId", Message: "Must be a valid UUID"},
			})
		}
		input.NewParentID = &parentID
	}

	moved, err := h.pageService.MovePage(page.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRootPageImmovable):
			return NewValidationError(c, "Root pages cannot be moved", nil)
		case errors.Is(err, domain.ErrCyclicMove):
			return NewValidationError(c, "Cannot move a page under its own descendant", nil)
		case errors.Is(err, domain.ErrDomainBoundPage):
			return NewConflictError(c, "Unbind the public address before nesting this page")
		case errors.Is(err, domain.ErrParentOutsideWorkspace):
			return NewValidationError(c, "Parent belongs to a different workspace", nil)
		case errors.Is(err, domain.ErrPageNotFound):
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to move page")
		return NewInternalError(c, "Failed to move page")
	}

	log.Info().Str("page_id", moved.ID.String()).Msg("Page moved")
	return c.JSON(http.StatusOK, toPageResponse(moved))
}

// MoveToWorkspace handles POST /api/v1/pages/:id/move-to-workspace
func (h *PageHandler) MoveToWorkspace(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionMovePageToWorkspace)
	if err != nil {
		return err
	}

	var req MoveToWorkspaceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	targetID, err := uuid.Parse(req.TargetWorkspaceID)
	if err != nil {
		return NewValidationError(c, "Invalid target workspace ID", []ValidationError{
			{Field: "targetWorkspaceId", Message: "Must be a valid UUID"},
		})
	}

	result, err := h.pageService.MoveToWorkspace(page.ID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSameWorkspace):
			return NewValidationError(c, "Page is already in the target workspace", nil)
		case errors.Is(err, domain.ErrWorkspaceIncomplete):
			return NewConflictError(c, "Target workspace is missing its root pages")
		case errors.Is(err, domain.ErrRootPageImmovable):
			return NewValidationError(c, "Root pages cannot be moved", nil)
		case errors.Is(err, domain.ErrDomainBoundPage):
			return NewConflictError(c, "Unbind the public address before moving this page")
		case errors.Is(err, domain.ErrWorkspaceNotFound):
			return NewNotFoundError(c, "Target workspace not found")
		case errors.Is(err, domain.ErrPageNotFound):
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", page.ID.String()).Str("target_workspace_id", targetID.String()).Msg("Failed to move page to workspace")
		return NewInternalError(c, "Failed to move page to workspace")
	}

	log.Info().Str("page_id", page.ID.String()).Str("target_workspace_id", targetID.String()).Msg("Page moved to workspace")
	return c.JSON(http.StatusOK, toPageResponse(result.UpdatedPage))
}

// DeletePage handles DELETE /api/v1/pages/:id
func (h *PageHandler) DeletePage(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionDeletePage)
	if err != nil {
		return err
	}

	if err := h.pageService.DeletePage(page.ID); err != nil {
		if errors.Is(err, domain.ErrRootPageImmovable) {
			return NewValidationError(c, "Root pages cannot be deleted", nil)
		}
		if errors.Is(err, domain.ErrPageNotFound) {
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to delete page")
		return NewInternalError(c, "Failed to delete page")
	}

	log.Info().Str("page_id", page.ID.String()).Msg("Page deleted")
	return c.NoContent(http.StatusNoContent)
}

// UpdateTitle handles PATCH /api/v1/pages/:id/title
func (h *PageHandler) UpdateTitle(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionSetTitle)
	if err != nil {
		return err
	}

	var req UpdateTitleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := h.pageService.UpdateTitle(page.ID, req.Name)
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
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to update title")
		return NewInternalError(c, "Failed to update title")
	}

	return c.JSON(http.StatusOK, toPageResponse(updated))
}

// UpdateContent handles PATCH /api/v1/pages/:id/content
func (h *PageHandler) UpdateContent(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionSetContent)
	if err != nil {
		return err
	}

	var req UpdateContentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := h.pageService.UpdateContent(page.ID, req.Content)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to update content")
		return NewInternalError(c, "Failed to update content")
	}

	return c.JSON(http.StatusOK, toPageResponse(updated))
}

// UpdateStyles handles PATCH /api/v1/pages/:id/styles
func (h *PageHandler) UpdateStyles(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionSetStyles)
	if err != nil {
		return err
	}

	var req UpdateStylesRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := h.pageService.UpdateStyles(page.ID, req.StylesScss)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to update styles")
		return NewInternalError(c, "Failed to update styles")
	}

	return c.JSON(http.StatusOK, toPageResponse(updated))
}

// UpdateHeadTags handles PATCH /api/v1/pages/:id/head-tags
func (h *PageHandler) UpdateHeadTags(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionSetHeadTags)
	if err != nil {
		return err
	}

	var req UpdateHeadTagsRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := h.pageService.UpdateHeadTags(page.ID, req.HeadTags)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to update head tags")
		return NewInternalError(c, "Failed to update head tags")
	}

	return c.JSON(http.StatusOK, toPageResponse(updated))
}

// UpdateCustomLink handles PATCH /api/v1/pages/:id/custom-link
func (h *PageHandler) UpdateCustomLink(c echo.Context) error {
	page, err := h.authorizedPage(c, domain.ActionSetCustomLink)
	if err != nil {
		return err
	}

	var req UpdateCustomLinkRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	updated, err := h.pageService.UpdateCustomLink(page.ID, req.CustomLink)
	if err != nil {
		if errors.Is(err, domain.ErrCustomLinkTaken) {
			return NewConflictError(c, "Custom link already used in this subtree")
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid custom link", []ValidationError{
				{Field: "customLink", Message: "Must be a non-empty URL segment"},
			})
		}
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to update custom link")
		return NewInternalError(c, "Failed to update custom link")
	}

	return c.JSON(http.StatusOK, toPageResponse(updated))
}

// authorizedPage parses the :id parameter, checks the action against the
// caller's role and returns the page.
func (h *PageHandler) authorizedPage(c echo.Context, action domain.Action) (*domain.Page, error) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return nil, NewUnauthorizedError(c, "Authentication required")
	}

	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, NewValidationError(c, "Invalid page ID", nil)
	}

	if err := h.accessService.Authorize(pageID, userID, action); err != nil {
		return nil, h.accessError(c, err)
	}

	page, err := h.pageService.GetPage(pageID)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return nil, NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to load page")
		return nil, NewInternalError(c, "Failed to load page")
	}

	return page, nil
}

func (h *PageHandler) accessError(c echo.Context, err error) error {
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

func toPageResponse(page *domain.Page) PageResponse {
	resp := PageResponse{
		ID:          page.ID.String(),
		WorkspaceID: page.WorkspaceID.String(),
		Name:        page.Name,
		ShortID:     page.ShortID,
		CustomLink:  page.CustomLink,
		Content:     page.Content,
		StylesScss:  page.StylesScss,
		ThemeID:     page.ThemeID,
		RootKind:    string(page.RootKind),
		HeadTags:    page.HeadTags,
		CreatedAt:   page.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   page.UpdatedAt.Format(time.RFC3339),
	}
	if page.ParentID != nil {
		id := page.ParentID.String()
		resp.ParentID = &id
	}
	resp.ChildrenOrder = make([]string, len(page.ChildrenOrder))
	for i, childID := range page.ChildrenOrder {
		resp.ChildrenOrder[i] = childID.String()
	}
	return resp
}
