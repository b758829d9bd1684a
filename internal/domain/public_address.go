package domain

import (
	"time"

	"github.com/google/uuid"
)

// PublicAddress binds exactly one top-level page (a direct child of a root
// page) to one external identity: either a subdomain of the base host or a
// custom external domain, never both.
type PublicAddress struct {
	ID             uuid.UUID `json:"id"`
	RootPageID     uuid.UUID `json:"rootPageId"`
	OwnerID        uuid.UUID `json:"ownerId"`
	Subdomain      *string   `json:"subdomain"`
	ExternalDomain *string   `json:"externalDomain"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Host returns the identity the address answers for, given the base host
// used for subdomain serving.
func (a *PublicAddress) Host(baseHost string) string {
	if a.ExternalDomain != nil {
		return *a.ExternalDomain
	}
	if a.Subdomain != nil {
		return *a.Subdomain + "." + baseHost
	}
	return baseHost
}

// PublicAddressRepository defines the interface for address persistence operations
type PublicAddressRepository interface {
	GetByID(id uuid.UUID) (*PublicAddress, error)
	GetByRootPage(rootPageID uuid.UUID) (*PublicAddress, error)
	GetBySubdomain(subdomain string) (*PublicAddress, error)
	GetByExternalDomain(domain string) (*PublicAddress, error)
	GetByOwner(ownerID uuid.UUID) ([]*PublicAddress, error)
	Create(address *PublicAddress) (*PublicAddress, error)
	Delete(id uuid.UUID) error
}
