package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/middleware"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ImageHandler handles image-related HTTP requests
type ImageHandler struct {
	imageService  *service.ImageService
	pageService   *service.PageService
	accessService *service.AccessService
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(imageService *service.ImageService, pageService *service.PageService, accessService *service.AccessService) *ImageHandler {
	return &ImageHandler{
		imageService:  imageService,
		pageService:   pageService,
		accessService: accessService,
	}
}

// UploadImageResponse represents the upload response
type UploadImageResponse struct {
	ID           string `json:"id"`
	ThumbnailURL string `json:"thumbnailUrl"`
	DisplayURL   string `json:"displayUrl"`
	OriginalURL  string `json:"originalUrl"`
}

// UploadImage handles POST /api/v1/pages/:id/images
func (h *ImageHandler) UploadImage(c echo.Context) error {
	page, err := h.authorizedPage(c)
	if err != nil {
		return err
	}

	// If storage isn't configured, don't attempt to process/upload (would panic on nil storage).
	if h.imageService == nil || !h.imageService.IsEnabled() {
		return NewServiceUnavailableError(c, "Image uploads are disabled (storage not configured)")
	}

	// Parse multipart form
	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	// Open the file
	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// Read all data for processing
	data, err := io.ReadAll(src)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	// Process and upload image
	metadata, err := h.imageService.ProcessAndUpload(c.Request().Context(), page.WorkspaceID, page.ID, data, file.Filename)
	if err != nil {
		switch err {
		case service.ErrImageTooLarge:
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "File too large. Maximum size is 5MB"},
			})
		case service.ErrInvalidFormat:
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
			})
		case service.ErrImageTooSmall:
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
			})
		case service.ErrInvalidImageData:
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "file", Message: "Invalid image data"},
			})
		default:
			log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to upload image")
			return NewInternalError(c, "Failed to upload image")
		}
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("image_id", metadata.ID).
		Msg("Image uploaded successfully")

	return c.JSON(http.StatusCreated, UploadImageResponse{
		ID:           metadata.ID,
		ThumbnailURL: metadata.ThumbnailURL,
		DisplayURL:   metadata.DisplayURL,
		OriginalURL:  metadata.OriginalURL,
	})
}

// DeleteImage handles DELETE /api/v1/pages/:id/images
func (h *ImageHandler) DeleteImage(c echo.Context) error {
	page, err := h.authorizedPage(c)
	if err != nil {
		return err
	}

	if h.imageService == nil || !h.imageService.IsEnabled() {
		return NewServiceUnavailableError(c, "Image deletion is disabled (storage not configured)")
	}

	objectPath := c.QueryParam("path")
	if objectPath == "" {
		return NewValidationError(c, "Image path required", []ValidationError{
			{Field: "path", Message: "Path is required"},
		})
	}

	// Objects are laid out as {workspace}/pages/{page}/..., so a path outside
	// the page's own prefix belongs to someone else
	expectedPrefix := fmt.Sprintf("%s/pages/%s/", page.WorkspaceID, page.ID)
	if !strings.HasPrefix(objectPath, expectedPrefix) {
		log.Warn().
			Str("page_id", page.ID.String()).
			Str("path", objectPath).
			Msg("Attempted to delete image from different page")
		return NewForbiddenError(c, "Cannot delete images attached to another page")
	}

	if err := h.imageService.DeleteAllVariants(c.Request().Context(), objectPath); err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Str("path", objectPath).Msg("Failed to delete image")
		return NewInternalError(c, "Failed to delete image")
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("path", objectPath).
		Msg("Image deleted successfully")

	return c.NoContent(http.StatusNoContent)
}

// authorizedPage requires content-edit rights on the page named by :id
func (h *ImageHandler) authorizedPage(c echo.Context) (*domain.Page, error) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return nil, NewUnauthorizedError(c, "Authentication required")
	}

	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, NewValidationError(c, "Invalid page ID", nil)
	}

	if err := h.accessService.Authorize(pageID, userID, domain.ActionSetContent); err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return nil, NewForbiddenError(c, "Not allowed to perform this action")
		case errors.Is(err, domain.ErrPageNotFound):
			return nil, NewNotFoundError(c, "Page not found")
		default:
			log.Error().Err(err).Msg("Authorization check failed")
			return nil, NewInternalError(c, "Failed to authorize request")
		}
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
