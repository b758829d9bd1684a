package service

import (
	"errors"
	"strings"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/util"
	"github.com/google/uuid"
)

// ResolverService builds canonical URLs for pages and resolves request paths
// back to pages. Path segments prefer a page's custom link and fall back to a
// slug of its name suffixed with the short id. When no page on the chain has a
// custom link the whole path collapses to a single slug-shortid segment, which
// stays stable across moves inside the site.
type ResolverService struct {
	pageRepo    domain.PageRepository
	addressRepo domain.PublicAddressRepository
	baseHost    string
}

// NewResolverService creates a new ResolverService
func NewResolverService(
	pageRepo domain.PageRepository,
	addressRepo domain.PublicAddressRepository,
	baseHost string,
) *ResolverService {
	return &ResolverService{
		pageRepo:    pageRepo,
		addressRepo: addressRepo,
		baseHost:    baseHost,
	}
}

func segmentFor(page *domain.Page) string {
	if page.CustomLink != nil && *page.CustomLink != "" {
		return *page.CustomLink
	}
	return util.SlugWithShortID(page.Name, page.ShortID)
}

// PagePath returns the path of a page below its workspace root, without a
// leading slash. Root pages have no path.
func (s *ResolverService) PagePath(page *domain.Page) (string, error) {
	if page.IsRoot() {
		return "", nil
	}

	// Ancestors below the workspace root, in order
	chain := page.AncestorIDs()[1:]
	ancestors, err := s.pageRepo.GetByIDs(chain)
	if err != nil {
		return "", err
	}
	byID := make(map[uuid.UUID]*domain.Page, len(ancestors))
	for _, a := range ancestors {
		byID[a.ID] = a
	}

	hasCustomLink := page.CustomLink != nil && *page.CustomLink != ""
	segments := make([]string, 0, len(chain)+1)
	for _, id := range chain {
		ancestor, ok := byID[id]
		if !ok {
			return "", domain.ErrPageNotFound
		}
		if ancestor.CustomLink != nil && *ancestor.CustomLink != "" {
			hasCustomLink = true
		}
		segments = append(segments, segmentFor(ancestor))
	}

	if !hasCustomLink {
		// No custom link anywhere on the chain: the short id alone
		// identifies the page
		return util.SlugWithShortID(page.Name, page.ShortID), nil
	}

	segments = append(segments, segmentFor(page))
	return strings.Join(segments, "/"), nil
}

// CanonicalLink returns the public URL of a page. Pages under a bound
// top-level page get that address's host; everything else falls back to a
// base-host link carrying only the slug-shortid segment.
func (s *ResolverService) CanonicalLink(page *domain.Page) (string, error) {
	if page.IsRoot() {
		return "", domain.ErrInvalidInput
	}

	chain := page.AncestorIDs()
	topLevelID := page.ID
	if len(chain) > 1 {
		topLevelID = chain[1]
	}

	address, err := s.addressRepo.GetByRootPage(topLevelID)
	if err != nil {
		if errors.Is(err, domain.ErrAddressNotFound) {
			return "https://" + s.baseHost + "/" + util.SlugWithShortID(page.Name, page.ShortID), nil
		}
		return "", err
	}

	host := address.Host(s.baseHost)
	if page.ID == address.RootPageID {
		return "https://" + host, nil
	}

	path, err := s.PagePath(page)
	if err != nil {
		return "", err
	}
	return "https://" + host + "/" + path, nil
}

// Resolve maps a request path under a public address to a page. The last
// segment decides the lookup: a UUID or shortid-suffixed slug identifies the
// page directly, anything else is matched as a custom link and disambiguated
// by reconstructing the full path. Pages outside the address's subtree are
// never returned.
func (s *ResolverService) Resolve(address *domain.PublicAddress, requestPath string) (*domain.Page, error) {
	bound, err := s.pageRepo.GetByID(address.RootPageID)
	if err != nil {
		return nil, err
	}

	path := strings.Trim(requestPath, "/")
	if path == "" {
		return bound, nil
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	if id, err := uuid.Parse(last); err == nil {
		page, err := s.pageRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		return s.inSubtree(page, bound)
	}

	if shortID, ok := util.ShortIDFromSegment(last); ok {
		page, err := s.pageRepo.GetByShortID(shortID)
		if err != nil {
			return nil, err
		}
		return s.inSubtree(page, bound)
	}

	// Custom link: may be ambiguous across the site, so verify the full
	// reconstructed path
	candidates, err := s.pageRepo.GetByCustomLink(bound.RootAncestorID(), last)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		if _, err := s.inSubtree(candidate, bound); err != nil {
			continue
		}
		candidatePath, err := s.PagePath(candidate)
		if err != nil {
			return nil, err
		}
		if candidatePath == path {
			return candidate, nil
		}
	}
	return nil, domain.ErrPageNotFound
}

func (s *ResolverService) inSubtree(page, bound *domain.Page) (*domain.Page, error) {
	if page.ID == bound.ID || page.HasAncestor(bound.ID) {
		return page, nil
	}
	return nil, domain.ErrPageNotFound
}
