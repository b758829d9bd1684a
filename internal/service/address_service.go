package service

import (
	"errors"
	"strings"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AddressPayload describes a public address in events
type AddressPayload struct {
	ID         uuid.UUID `json:"id"`
	RootPageID uuid.UUID `json:"rootPageId"`
	Host       *string   `json:"host"`
}

// AddressService binds top-level pages to subdomains or custom domains.
// A page can hold at most one address, and only while it is a direct child
// of a root page.
type AddressService struct {
	addressRepo    domain.PublicAddressRepository
	pageRepo       domain.PageRepository
	workspaceRepo  domain.WorkspaceRepository
	eventPublisher websocket.EventPublisher
}

// NewAddressService creates a new AddressService
func NewAddressService(
	addressRepo domain.PublicAddressRepository,
	pageRepo domain.PageRepository,
	workspaceRepo domain.WorkspaceRepository,
) *AddressService {
	return &AddressService{
		addressRepo:   addressRepo,
		pageRepo:      pageRepo,
		workspaceRepo: workspaceRepo,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *AddressService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// BindAddressInput holds the input for binding a public address.
// Exactly one of Subdomain or ExternalDomain must be set.
type BindAddressInput struct {
	Subdomain      *string
	ExternalDomain *string
}

// Bind attaches a public address to a top-level page.
func (s *AddressService) Bind(pageID uuid.UUID, input BindAddressInput) (*domain.PublicAddress, error) {
	if (input.Subdomain == nil) == (input.ExternalDomain == nil) {
		return nil, domain.ErrInvalidInput
	}

	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	if page.IsRoot() {
		return nil, domain.ErrInvalidInput
	}
	parent, err := s.pageRepo.GetByID(*page.ParentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsRoot() {
		// Only top-level pages can carry a public address
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.addressRepo.GetByRootPage(page.ID); err == nil {
		return nil, domain.ErrPageAlreadyBound
	} else if !errors.Is(err, domain.ErrAddressNotFound) {
		return nil, err
	}

	if input.Subdomain != nil {
		sub := strings.ToLower(strings.TrimSpace(*input.Subdomain))
		if sub == "" {
			return nil, domain.ErrInvalidInput
		}
		if _, err := s.addressRepo.GetBySubdomain(sub); err == nil {
			return nil, domain.ErrAddressTaken
		} else if !errors.Is(err, domain.ErrAddressNotFound) {
			return nil, err
		}
		input.Subdomain = &sub
	} else {
		dom := strings.ToLower(strings.TrimSpace(*input.ExternalDomain))
		if dom == "" {
			return nil, domain.ErrInvalidInput
		}
		if _, err := s.addressRepo.GetByExternalDomain(dom); err == nil {
			return nil, domain.ErrAddressTaken
		} else if !errors.Is(err, domain.ErrAddressNotFound) {
			return nil, err
		}
		input.ExternalDomain = &dom
	}

	workspace, err := s.workspaceRepo.GetByID(page.WorkspaceID)
	if err != nil {
		return nil, err
	}

	address, err := s.addressRepo.Create(&domain.PublicAddress{
		RootPageID:     page.ID,
		OwnerID:        workspace.OwnerUserID,
		Subdomain:      input.Subdomain,
		ExternalDomain: input.ExternalDomain,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("address_id", address.ID.String()).
		Msg("Public address bound")

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(page.WorkspaceID, websocket.AddressBound(AddressPayload{
			ID:         address.ID,
			RootPageID: address.RootPageID,
		}))
	}

	return address, nil
}

// Unbind removes the public address bound to a page
func (s *AddressService) Unbind(pageID uuid.UUID) error {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return err
	}

	address, err := s.addressRepo.GetByRootPage(page.ID)
	if err != nil {
		return err
	}

	if err := s.addressRepo.Delete(address.ID); err != nil {
		return err
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("address_id", address.ID.String()).
		Msg("Public address unbound")

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(page.WorkspaceID, websocket.AddressUnbound(AddressPayload{
			ID:         address.ID,
			RootPageID: address.RootPageID,
		}))
	}

	return nil
}

// GetByPage returns the address bound to a page, if any
func (s *AddressService) GetByPage(pageID uuid.UUID) (*domain.PublicAddress, error) {
	return s.addressRepo.GetByRootPage(pageID)
}

// LookupHost resolves an incoming host header to a public address. Hosts
// under the base host are matched by subdomain, everything else by custom
// domain.
func (s *AddressService) LookupHost(host, baseHost string) (*domain.PublicAddress, error) {
	host = strings.ToLower(host)
	if sub, ok := strings.CutSuffix(host, "."+baseHost); ok {
		return s.addressRepo.GetBySubdomain(sub)
	}
	return s.addressRepo.GetByExternalDomain(host)
}
