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

// AddressHandler handles public address HTTP requests
type AddressHandler struct {
	addressService *service.AddressService
	accessService  *service.AccessService
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressService *service.AddressService, accessService *service.AccessService) *AddressHandler {
	return &AddressHandler{
		addressService: addressService,
		accessService:  accessService,
	}
}

// BindAddressRequest represents the bind address request body.
// Exactly one of subdomain or externalDomain must be set.
type BindAddressRequest struct {
	Subdomain      *string `json:"subdomain"`
	ExternalDomain *string `json:"externalDomain"`
}

// AddressResponse represents a public address in API responses
type AddressResponse struct {
	ID             string  `json:"id"`
	RootPageID     string  `json:"rootPageId"`
	OwnerID        string  `json:"ownerId"`
	Subdomain      *string `json:"subdomain"`
	ExternalDomain *string `json:"externalDomain"`
	CreatedAt      string  `json:"createdAt"`
}

// BindAddress handles POST /api/v1/pages/:id/address
func (h *AddressHandler) BindAddress(c echo.Context) error {
	pageID, err := h.authorizedPageID(c, domain.ActionBindAddress)
	if err != nil {
		return err
	}

	var req BindAddressRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	address, err := h.addressService.Bind(pageID, service.BindAddressInput{
		Subdomain:      req.Subdomain,
		ExternalDomain: req.ExternalDomain,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return NewValidationError(c, "Exactly one of subdomain or externalDomain must be set, and the page must be a top-level page", nil)
		case errors.Is(err, domain.ErrAddressTaken):
			return NewConflictError(c, "Address is already in use")
		case errors.Is(err, domain.ErrPageAlreadyBound):
			return NewConflictError(c, "Page already has a public address")
		case errors.Is(err, domain.ErrPageNotFound):
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to bind address")
		return NewInternalError(c, "Failed to bind address")
	}

	log.Info().Str("page_id", pageID.String()).Str("address_id", address.ID.String()).Msg("Public address bound")
	return c.JSON(http.StatusCreated, toAddressResponse(address))
}

// UnbindAddress handles DELETE /api/v1/pages/:id/address
func (h *AddressHandler) UnbindAddress(c echo.Context) error {
	pageID, err := h.authorizedPageID(c, domain.ActionUnbindAddress)
	if err != nil {
		return err
	}

	if err := h.addressService.Unbind(pageID); err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return NewNotFoundError(c, "Page has no public address")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to unbind address")
		return NewInternalError(c, "Failed to unbind address")
	}

	log.Info().Str("page_id", pageID.String()).Msg("Public address unbound")
	return c.NoContent(http.StatusNoContent)
}

// GetAddress handles GET /api/v1/pages/:id/address
func (h *AddressHandler) GetAddress(c echo.Context) error {
	pageID, err := h.authorizedPageID(c, domain.ActionReadPage)
	if err != nil {
		return err
	}

	address, err := h.addressService.GetByPage(pageID)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return NewNotFoundError(c, "Page has no public address")
		}
		log.Error().Err(err).Str("page_id", pageID.String()).Msg("Failed to get address")
		return NewInternalError(c, "Failed to get address")
	}

	return c.JSON(http.StatusOK, toAddressResponse(address))
}

func (h *AddressHandler) authorizedPageID(c echo.Context, action domain.Action) (uuid.UUID, error) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return uuid.Nil, NewUnauthorizedError(c, "Authentication required")
	}

	pageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, NewValidationError(c, "Invalid page ID", nil)
	}

	if err := h.accessService.Authorize(pageID, userID, action); err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return uuid.Nil, NewForbiddenError(c, "Not allowed to perform this action")
		case errors.Is(err, domain.ErrPageNotFound):
			return uuid.Nil, NewNotFoundError(c, "Page not found")
		default:
			log.Error().Err(err).Msg("Authorization check failed")
			return uuid.Nil, NewInternalError(c, "Failed to authorize request")
		}
	}

	return pageID, nil
}

func toAddressResponse(address *domain.PublicAddress) AddressResponse {
	return AddressResponse{
		ID:             address.ID.String(),
		RootPageID:     address.RootPageID.String(),
		OwnerID:        address.OwnerID.String(),
		Subdomain:      address.Subdomain,
		ExternalDomain: address.ExternalDomain,
		CreatedAt:      address.CreatedAt.Format(time.RFC3339),
	}
}
