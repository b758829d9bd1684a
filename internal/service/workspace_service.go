package service

import (
	"strings"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WorkspaceService handles workspace lifecycle. A workspace is only complete
// once both of its root pages exist; incomplete workspaces are never exposed.
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
	pageRepo      domain.PageRepository
	pageService   *PageService
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(
	workspaceRepo domain.WorkspaceRepository,
	pageRepo domain.PageRepository,
	pageService *PageService,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		pageRepo:      pageRepo,
		pageService:   pageService,
	}
}

// CreateWorkspace creates a workspace with its private and public root pages.
func (s *WorkspaceService) CreateWorkspace(ownerUserID uuid.UUID, name string) (*domain.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxWorkspaceNameLength {
		return nil, domain.ErrNameTooLong
	}

	workspace, err := s.workspaceRepo.Create(&domain.Workspace{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		Name:        name,
	})
	if err != nil {
		return nil, err
	}

	privateRoot, err := s.createRootPage(workspace.ID, domain.RootKindPrivate)
	if err != nil {
		return nil, err
	}
	publicRoot, err := s.createRootPage(workspace.ID, domain.RootKindPublic)
	if err != nil {
		return nil, err
	}

	workspace.PrivateRootPageID = &privateRoot.ID
	workspace.PublicRootPageID = &publicRoot.ID

	workspace, err = s.workspaceRepo.Update(workspace)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("workspace_id", workspace.ID.String()).
		Str("owner_user_id", ownerUserID.String()).
		Msg("Workspace created")

	return workspace, nil
}

func (s *WorkspaceService) createRootPage(workspaceID uuid.UUID, kind domain.RootKind) (*domain.Page, error) {
	name := "Public"
	if kind == domain.RootKindPrivate {
		name = "Private"
	}
	page := &domain.Page{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Mpath:       "",
		Name:        name,
		ShortID:     util.NewShortID(),
		RootKind:    kind,
	}
	return s.pageRepo.Create(page)
}

// GetWorkspace retrieves a complete workspace; a mid-creation workspace is
// reported as not found.
func (s *WorkspaceService) GetWorkspace(id uuid.UUID) (*domain.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !workspace.IsComplete() {
		return nil, domain.ErrWorkspaceNotFound
	}
	return workspace, nil
}

// ListWorkspaces retrieves the complete workspaces owned by a user
func (s *WorkspaceService) ListWorkspaces(ownerUserID uuid.UUID) ([]*domain.Workspace, error) {
	all, err := s.workspaceRepo.GetByOwner(ownerUserID)
	if err != nil {
		return nil, err
	}
	complete := make([]*domain.Workspace, 0, len(all))
	for _, ws := range all {
		if ws.IsComplete() {
			complete = append(complete, ws)
		}
	}
	return complete, nil
}

// RenameWorkspace updates a workspace's name
func (s *WorkspaceService) RenameWorkspace(id uuid.UUID, name string) (*domain.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxWorkspaceNameLength {
		return nil, domain.ErrNameTooLong
	}

	workspace, err := s.GetWorkspace(id)
	if err != nil {
		return nil, err
	}
	workspace.Name = name
	return s.workspaceRepo.Update(workspace)
}

// DeleteWorkspace removes a workspace: root references are nulled, all pages
// with their grants and addresses go next, then the workspace row.
func (s *WorkspaceService) DeleteWorkspace(id uuid.UUID) error {
	if _, err := s.workspaceRepo.GetByID(id); err != nil {
		return err
	}

	if err := s.pageService.DeleteAllPagesInWorkspace(id); err != nil {
		return err
	}

	if err := s.workspaceRepo.Delete(id); err != nil {
		return err
	}

	log.Info().Str("workspace_id", id.String()).Msg("Workspace deleted")
	return nil
}
