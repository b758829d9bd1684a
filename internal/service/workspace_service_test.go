package service

import (
	"errors"
	"testing"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/testutil"
	"github.com/google/uuid"
)

func newWorkspaceFixture() (*WorkspaceService, *PageService, *testutil.MockPageRepository, *testutil.MockWorkspaceRepository) {
	pageRepo := testutil.NewMockPageRepository()
	wsRepo := testutil.NewMockWorkspaceRepository()
	pageService := NewPageService(pageRepo, wsRepo, testutil.NewMockPublicAddressRepository())
	workspaceService := NewWorkspaceService(wsRepo, pageRepo, pageService)
	return workspaceService, pageService, pageRepo, wsRepo
}

func TestCreateWorkspace_CreatesBothRoots(t *testing.T) {
	workspaceService, _, pageRepo, _ := newWorkspaceFixture()

	owner := uuid.New()
	ws, err := workspaceService.CreateWorkspace(owner, "Personal")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !ws.IsComplete() {
		t.Fatal("Expected a complete workspace")
	}

	private, err := pageRepo.GetByID(*ws.PrivateRootPageID)
	if err != nil {
		t.Fatalf("Expected private root to exist, got %v", err)
	}
	public, err := pageRepo.GetByID(*ws.PublicRootPageID)
	if err != nil {
		t.Fatalf("Expected public root to exist, got %v", err)
	}

	if private.RootKind != domain.RootKindPrivate || public.RootKind != domain.RootKindPublic {
		t.Errorf("Expected root kinds private/public, got %s/%s", private.RootKind, public.RootKind)
	}
	if !private.IsRoot() || private.Mpath != "" {
		t.Error("Expected root page with nil parent and empty mpath")
	}
	if private.ShortID == "" || public.ShortID == "" {
		t.Error("Expected short ids on root pages")
	}
}

func TestCreateWorkspace_EmptyName(t *testing.T) {
	workspaceService, _, _, _ := newWorkspaceFixture()

	if _, err := workspaceService.CreateWorkspace(uuid.New(), "  "); !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestGetWorkspace_IncompleteHidden(t *testing.T) {
	workspaceService, _, _, wsRepo := newWorkspaceFixture()

	half, _ := wsRepo.Create(&domain.Workspace{OwnerUserID: uuid.New(), Name: "Half"})

	if _, err := workspaceService.GetWorkspace(half.ID); !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Errorf("Expected incomplete workspace to be hidden, got %v", err)
	}
}

func TestListWorkspaces_FiltersIncomplete(t *testing.T) {
	workspaceService, _, _, wsRepo := newWorkspaceFixture()

	owner := uuid.New()
	complete, err := workspaceService.CreateWorkspace(owner, "Done")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := wsRepo.Create(&domain.Workspace{OwnerUserID: owner, Name: "Half"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	list, err := workspaceService.ListWorkspaces(owner)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(list) != 1 || list[0].ID != complete.ID {
		t.Errorf("Expected only the complete workspace, got %d entries", len(list))
	}
}

func TestRenameWorkspace(t *testing.T) {
	workspaceService, _, _, _ := newWorkspaceFixture()

	ws, err := workspaceService.CreateWorkspace(uuid.New(), "Old")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	renamed, err := workspaceService.RenameWorkspace(ws.ID, "  New Name  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if renamed.Name != "New Name" {
		t.Errorf("Expected trimmed name 'New Name', got %q", renamed.Name)
	}
}

func TestDeleteWorkspace_RemovesEverything(t *testing.T) {
	workspaceService, pageService, pageRepo, _ := newWorkspaceFixture()

	owner := uuid.New()
	ws, err := workspaceService.CreateWorkspace(owner, "Doomed")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	page := mustCreatePage(t, pageService, ws.ID, *ws.PublicRootPageID, "Page")
	mustCreatePage(t, pageService, ws.ID, page.ID, "Child")

	if err := workspaceService.DeleteWorkspace(ws.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := workspaceService.GetWorkspace(ws.ID); !errors.Is(err, domain.ErrWorkspaceNotFound) {
		t.Error("Expected workspace to be gone")
	}
	pages, _ := pageRepo.GetByWorkspace(ws.ID)
	if len(pages) != 0 {
		t.Errorf("Expected no pages left, got %d", len(pages))
	}
}
