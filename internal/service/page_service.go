package service

import (
	"errors"
	"strings"
	"time"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/util"
	"github.com/arborhq/arbor-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// shortIDRetries bounds the regeneration attempts on short id collisions
// before the whole create is surfaced as a retryable conflict.
const shortIDRetries = 3

// WebSocket event payloads for page operations
type PagePayload struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspaceId"`
	ParentID    *uuid.UUID `json:"parentId"`
	Name        string     `json:"name"`
	ShortID     string     `json:"shortId"`
}

type StructureChangedPayload struct {
	WorkspaceID uuid.UUID `json:"workspaceId"`
}

// MoveToWorkspaceResult is returned by MoveToWorkspace for caller convenience
type MoveToWorkspaceResult struct {
	UpdatedPage *domain.Page
	NewParent   *domain.Page
	OldParent   *domain.Page
}

// PageService is the hierarchy engine: it validates and executes structural
// mutations while maintaining the mpath and childrenOrder invariants.
// Every multi-page mutation goes through an atomic repository operation so
// concurrent readers never observe a half-migrated tree.
type PageService struct {
	pageRepo       domain.PageRepository
	workspaceRepo  domain.WorkspaceRepository
	addressRepo    domain.PublicAddressRepository
	eventPublisher websocket.EventPublisher
	entitlements   domain.Entitlements
}

// NewPageService creates a new PageService
func NewPageService(
	pageRepo domain.PageRepository,
	workspaceRepo domain.WorkspaceRepository,
	addressRepo domain.PublicAddressRepository,
) *PageService {
	return &PageService{
		pageRepo:      pageRepo,
		workspaceRepo: workspaceRepo,
		addressRepo:   addressRepo,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *PageService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetEntitlements sets the billing capability gate. Without one, private
// pages are allowed for everyone.
func (s *PageService) SetEntitlements(entitlements domain.Entitlements) {
	s.entitlements = entitlements
}

func (s *PageService) publishEvent(workspaceID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// CreatePageInput holds the input for creating a page
type CreatePageInput struct {
	Name     string
	ParentID uuid.UUID
}

// CreatePage inserts a page as the last child of its parent. The parent must
// belong to the given workspace.
func (s *PageService) CreatePage(workspaceID uuid.UUID, input CreatePageInput) (*domain.Page, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxPageNameLength {
		return nil, domain.ErrNameTooLong
	}

	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return nil, err
	}

	parent, err := s.pageRepo.GetByID(input.ParentID)
	if err != nil {
		return nil, err
	}
	if parent.WorkspaceID != workspace.ID {
		return nil, domain.ErrParentOutsideWorkspace
	}

	if s.entitlements != nil && workspace.PrivateRootPageID != nil &&
		parent.RootAncestorID() == *workspace.PrivateRootPageID &&
		!s.entitlements.CanHavePrivatePage(workspace.OwnerUserID) {
		return nil, domain.ErrForbidden
	}

	page := &domain.Page{
		ID:          uuid.New(),
		WorkspaceID: workspace.ID,
		ParentID:    &parent.ID,
		Mpath:       parent.ChildMpath(),
		Name:        name,
	}
	parent.ChildrenOrder = append(parent.ChildrenOrder, page.ID)

	var created *domain.Page
	for attempt := 0; attempt < shortIDRetries; attempt++ {
		page.ShortID = util.NewShortID()
		created, err = s.pageRepo.CreateWithParent(page, parent)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrShortIDCollision) {
			return nil, err
		}
	}
	if err != nil {
		// Still colliding; the caller retries the whole call
		return nil, domain.ErrShortIDCollision
	}

	log.Info().
		Str("workspace_id", workspace.ID.String()).
		Str("page_id", created.ID.String()).
		Str("parent_id", parent.ID.String()).
		Msg("Page created")

	s.publishEvent(workspace.ID, websocket.PageCreated(pagePayload(created)))

	return created, nil
}

// MovePageInput holds the input for a within-workspace move.
// A nil NewParentID (or one equal to the current parent) makes the call a
// sibling reorder; Position is the target index in the parent's
// childrenOrder.
type MovePageInput struct {
	NewParentID *uuid.UUID
	Position    *int
}

// MovePage reparents or reorders a page within its workspace.
func (s *PageService) MovePage(pageID uuid.UUID, input MovePageInput) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	if page.IsRoot() {
		return nil, domain.ErrRootPageImmovable
	}

	oldParent, err := s.pageRepo.GetByID(*page.ParentID)
	if err != nil {
		return nil, err
	}

	if input.NewParentID == nil || *input.NewParentID == oldParent.ID {
		return s.reorder(page, oldParent, input.Position)
	}
	return s.reparent(page, oldParent, *input.NewParentID, input.Position)
}

// reorder moves the page among its current siblings. Calling it twice with
// the same position yields the same childrenOrder.
func (s *PageService) reorder(page, parent *domain.Page, position *int) (*domain.Page, error) {
	if position == nil {
		// Same parent, no position: nothing to do
		return page, nil
	}

	parent.RemoveChild(page.ID)
	parent.InsertChildAt(page.ID, *position)

	if _, err := s.pageRepo.Update(parent); err != nil {
		return nil, err
	}

	s.publishEvent(page.WorkspaceID, websocket.WorkspacePagesStructureChanged(StructureChangedPayload{
		WorkspaceID: page.WorkspaceID,
	}))

	return page, nil
}

// reparent moves the page under a new parent in the same workspace,
// rewriting the mpath of the entire subtree in one atomic batch.
func (s *PageService) reparent(page, oldParent *domain.Page, newParentID uuid.UUID, position *int) (*domain.Page, error) {
	newParent, err := s.pageRepo.GetByID(newParentID)
	if err != nil {
		return nil, err
	}
	if newParent.WorkspaceID != page.WorkspaceID {
		return nil, domain.ErrParentOutsideWorkspace
	}
	if newParent.ID == page.ID || newParent.HasAncestor(page.ID) {
		return nil, domain.ErrCyclicMove
	}

	// A top-level page with a bound domain cannot become nested
	if !newParent.IsRoot() {
		if _, err := s.addressRepo.GetByRootPage(page.ID); err == nil {
			return nil, domain.ErrDomainBoundPage
		} else if !errors.Is(err, domain.ErrAddressNotFound) {
			return nil, err
		}
	}

	oldChildPrefix := page.ChildMpath()

	oldParent.RemoveChild(page.ID)
	if position != nil {
		newParent.InsertChildAt(page.ID, *position)
	} else {
		newParent.ChildrenOrder = append(newParent.ChildrenOrder, page.ID)
	}

	page.ParentID = &newParent.ID
	page.Mpath = newParent.ChildMpath()

	descendants, err := s.pageRepo.GetDescendants(page.ID)
	if err != nil {
		return nil, err
	}
	rewriteMpaths(descendants, oldChildPrefix, page.ChildMpath())

	batch := append([]*domain.Page{oldParent, newParent, page}, descendants...)
	if err := s.pageRepo.SaveAll(batch); err != nil {
		return nil, err
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("new_parent_id", newParent.ID.String()).
		Int("descendants", len(descendants)).
		Msg("Page moved")

	s.publishEvent(page.WorkspaceID, websocket.WorkspacePagesStructureChanged(StructureChangedPayload{
		WorkspaceID: page.WorkspaceID,
	}))

	return page, nil
}

// MoveToWorkspace moves a page and its whole subtree into another workspace,
// preserving its privacy zone: a page under the source's private root lands
// under the destination's private root, and likewise for public.
func (s *PageService) MoveToWorkspace(pageID, targetWorkspaceID uuid.UUID) (*MoveToWorkspaceResult, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	if page.IsRoot() {
		return nil, domain.ErrRootPageImmovable
	}
	if page.WorkspaceID == targetWorkspaceID {
		return nil, domain.ErrSameWorkspace
	}

	source, err := s.workspaceRepo.GetByID(page.WorkspaceID)
	if err != nil {
		return nil, err
	}
	target, err := s.workspaceRepo.GetByID(targetWorkspaceID)
	if err != nil {
		return nil, err
	}

	isPrivate := source.PrivateRootPageID != nil && page.RootAncestorID() == *source.PrivateRootPageID

	var targetRootID *uuid.UUID
	if isPrivate {
		targetRootID = target.PrivateRootPageID
	} else {
		targetRootID = target.PublicRootPageID
	}
	if targetRootID == nil {
		return nil, domain.ErrWorkspaceIncomplete
	}

	oldParent, err := s.pageRepo.GetByID(*page.ParentID)
	if err != nil {
		return nil, err
	}
	newParent, err := s.pageRepo.GetByID(*targetRootID)
	if err != nil {
		return nil, err
	}

	oldChildPrefix := page.ChildMpath()

	oldParent.RemoveChild(page.ID)
	newParent.ChildrenOrder = append(newParent.ChildrenOrder, page.ID)

	page.ParentID = &newParent.ID
	page.Mpath = newParent.ChildMpath()
	page.WorkspaceID = target.ID

	descendants, err := s.pageRepo.GetDescendants(page.ID)
	if err != nil {
		return nil, err
	}
	rewriteMpaths(descendants, oldChildPrefix, page.ChildMpath())
	// workspaceId is denormalized for cheap per-workspace queries and must
	// never disagree with ancestry
	for _, d := range descendants {
		d.WorkspaceID = target.ID
	}

	batch := append([]*domain.Page{oldParent, newParent, page}, descendants...)
	if err := s.pageRepo.SaveAll(batch); err != nil {
		return nil, err
	}

	log.Info().
		Str("page_id", page.ID.String()).
		Str("source_workspace_id", source.ID.String()).
		Str("target_workspace_id", target.ID.String()).
		Int("descendants", len(descendants)).
		Msg("Page moved to workspace")

	s.publishEvent(source.ID, websocket.WorkspacePagesStructureChanged(StructureChangedPayload{WorkspaceID: source.ID}))
	s.publishEvent(target.ID, websocket.WorkspacePagesStructureChanged(StructureChangedPayload{WorkspaceID: target.ID}))

	return &MoveToWorkspaceResult{
		UpdatedPage: page,
		NewParent:   newParent,
		OldParent:   oldParent,
	}, nil
}

// DeletePage removes the page and its entire subtree, cascading to
// collaboration grants and any bound public address.
func (s *PageService) DeletePage(pageID uuid.UUID) error {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return err
	}
	if page.IsRoot() {
		return domain.ErrRootPageImmovable
	}

	parent, err := s.pageRepo.GetByID(*page.ParentID)
	if err != nil {
		return err
	}
	parent.RemoveChild(page.ID)

	if err := s.pageRepo.DeleteSubtree(page, parent); err != nil {
		return err
	}

	log.Info().
		Str("workspace_id", page.WorkspaceID.String()).
		Str("page_id", page.ID.String()).
		Msg("Page deleted")

	s.publishEvent(page.WorkspaceID, websocket.PageDeleted(pagePayload(page)))

	return nil
}

// DeleteAllPagesInWorkspace is used during workspace deletion: it nulls the
// workspace's root-page references first (breaking the FK cycle), then
// bulk-deletes grants, addresses and pages.
func (s *PageService) DeleteAllPagesInWorkspace(workspaceID uuid.UUID) error {
	workspace, err := s.workspaceRepo.GetByID(workspaceID)
	if err != nil {
		return err
	}

	workspace.PrivateRootPageID = nil
	workspace.PublicRootPageID = nil
	if _, err := s.workspaceRepo.Update(workspace); err != nil {
		return err
	}

	return s.pageRepo.DeleteAllInWorkspace(workspaceID)
}

// GetPage retrieves a page by id
func (s *PageService) GetPage(pageID uuid.UUID) (*domain.Page, error) {
	return s.pageRepo.GetByID(pageID)
}

// GetWorkspacePages retrieves all pages of a workspace for tree rendering
func (s *PageService) GetWorkspacePages(workspaceID uuid.UUID) ([]*domain.Page, error) {
	return s.pageRepo.GetByWorkspace(workspaceID)
}

// UpdateTitle renames a page
func (s *PageService) UpdateTitle(pageID uuid.UUID, name string) (*domain.Page, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxPageNameLength {
		return nil, domain.ErrNameTooLong
	}

	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	page.Name = name
	return s.saveAndNotify(page)
}

// UpdateContent replaces a page's content last-write-wins and records a
// history snapshot.
func (s *PageService) UpdateContent(pageID uuid.UUID, content string) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	page.Content = content
	page.AppendHistory(content, time.Now().UTC())
	return s.saveAndNotify(page)
}

// UpdateStyles replaces a page's SCSS overrides
func (s *PageService) UpdateStyles(pageID uuid.UUID, stylesScss *string) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	page.StylesScss = stylesScss
	return s.saveAndNotify(page)
}

// UpdateHeadTags replaces a page's rendered head-tag customizations
func (s *PageService) UpdateHeadTags(pageID uuid.UUID, headTags *string) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}
	page.HeadTags = headTags
	return s.saveAndNotify(page)
}

// UpdateCustomLink sets or clears a page's custom link. The link must be
// unique within the page's root subtree.
func (s *PageService) UpdateCustomLink(pageID uuid.UUID, customLink *string) (*domain.Page, error) {
	page, err := s.pageRepo.GetByID(pageID)
	if err != nil {
		return nil, err
	}

	if customLink != nil {
		link := strings.TrimSpace(*customLink)
		if link == "" || len(link) > domain.MaxCustomLinkLength {
			return nil, domain.ErrInvalidInput
		}
		taken, err := s.pageRepo.GetByCustomLink(page.RootAncestorID(), link)
		if err != nil {
			return nil, err
		}
		for _, other := range taken {
			if other.ID != page.ID {
				return nil, domain.ErrCustomLinkTaken
			}
		}
		customLink = &link
	}

	page.CustomLink = customLink
	return s.saveAndNotify(page)
}

func (s *PageService) saveAndNotify(page *domain.Page) (*domain.Page, error) {
	updated, err := s.pageRepo.Update(page)
	if err != nil {
		return nil, err
	}
	s.publishEvent(updated.WorkspaceID, websocket.PageUpdated(pagePayload(updated)))
	return updated, nil
}

func pagePayload(page *domain.Page) PagePayload {
	return PagePayload{
		ID:          page.ID,
		WorkspaceID: page.WorkspaceID,
		ParentID:    page.ParentID,
		Name:        page.Name,
		ShortID:     page.ShortID,
	}
}

// rewriteMpaths swaps the subtree prefix of every descendant in one pass so
// the whole batch can be committed together.
func rewriteMpaths(descendants []*domain.Page, oldPrefix, newPrefix string) {
	for _, d := range descendants {
		if strings.HasPrefix(d.Mpath, oldPrefix) {
			d.Mpath = newPrefix + d.Mpath[len(oldPrefix):]
		}
	}
}
