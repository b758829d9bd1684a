package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// PublicHandler serves anonymous page resolution for published sites
type PublicHandler struct {
	addressService  *service.AddressService
	resolverService *service.ResolverService
	baseHost        string
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(addressService *service.AddressService, resolverService *service.ResolverService, baseHost string) *PublicHandler {
	return &PublicHandler{
		addressService:  addressService,
		resolverService: resolverService,
		baseHost:        baseHost,
	}
}

// PublicPageResponse represents a resolved public page
type PublicPageResponse struct {
	Page          PageResponse `json:"page"`
	CanonicalLink string       `json:"canonicalLink"`
}

// Resolve handles GET /public/resolve
//
// The serving host is taken from the Host header unless overridden by the
// host query parameter (useful behind proxies that rewrite the header).
// The path query parameter carries the request path on the published site.
func (h *PublicHandler) Resolve(c echo.Context) error {
	host := c.QueryParam("host")
	if host == "" {
		host = c.Request().Host
	}
	// Strip port for local development
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}

	address, err := h.addressService.LookupHost(host, h.baseHost)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return NewNotFoundError(c, "Site not found")
		}
		log.Error().Err(err).Str("host", host).Msg("Failed to look up host")
		return NewInternalError(c, "Failed to resolve site")
	}

	path := c.QueryParam("path")

	page, err := h.resolverService.Resolve(address, path)
	if err != nil {
		if errors.Is(err, domain.ErrPageNotFound) {
			return NewNotFoundError(c, "Page not found")
		}
		log.Error().Err(err).Str("host", host).Str("path", path).Msg("Failed to resolve page")
		return NewInternalError(c, "Failed to resolve page")
	}

	link, err := h.resolverService.CanonicalLink(page)
	if err != nil {
		log.Error().Err(err).Str("page_id", page.ID.String()).Msg("Failed to build canonical link")
		return NewInternalError(c, "Failed to resolve page")
	}

	return c.JSON(http.StatusOK, PublicPageResponse{
		Page:          toPageResponse(page),
		CanonicalLink: link,
	})
}
