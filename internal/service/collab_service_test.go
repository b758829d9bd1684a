package service

import (
	"errors"
	"testing"

	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/arborhq/arbor-backend/internal/testutil"
	"github.com/google/uuid"
)

func newCollabFixture(t *testing.T) (*CollabService, *PageService, *testutil.MockEventPublisher, *domain.Workspace, *domain.Page) {
	t.Helper()
	pageRepo := testutil.NewMockPageRepository()
	wsRepo := testutil.NewMockWorkspaceRepository()
	grantRepo := testutil.NewMockCollabGrantRepository()
	publisher := testutil.NewMockEventPublisher()

	pageService := NewPageService(pageRepo, wsRepo, testutil.NewMockPublicAddressRepository())
	collabService := NewCollabService(pageRepo, wsRepo, grantRepo)
	collabService.SetEventPublisher(publisher)

	ws, _, publicRoot := newTestWorkspace(t, wsRepo, pageRepo, uuid.New())
	return collabService, pageService, publisher, ws, publicRoot
}

func TestCreatePageInvite_AddsLiveInvite(t *testing.T) {
	collabService, pageService, _, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	inviteID, err := collabService.CreatePageInvite(page.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !page.HasInvite(inviteID) {
		t.Error("Expected invite id to be live on the page")
	}

	// A second invite coexists with the first
	second, err := collabService.CreatePageInvite(page.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !page.HasInvite(inviteID) || !page.HasInvite(second) {
		t.Error("Expected both invite ids to be live")
	}
}

func TestAcceptInvite_PageScope(t *testing.T) {
	collabService, pageService, publisher, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	inviteID, err := collabService.CreatePageInvite(page.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	user := uuid.New()
	grant, err := collabService.AcceptInvite(user, inviteID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if grant.Scope != domain.GrantScopePage || grant.TargetID != page.ID || grant.UserID != user {
		t.Errorf("Expected page grant for %s on %s, got %+v", user, page.ID, grant)
	}

	events := publisher.UserEvents(ws.OwnerUserID)
	if len(events) != 1 || events[0].Type != "collaborator.joined" {
		t.Errorf("Expected collaborator.joined event for the owner, got %v", events)
	}
}

func TestAcceptInvite_WorkspaceScope(t *testing.T) {
	collabService, _, _, ws, _ := newCollabFixture(t)

	inviteID, err := collabService.CreateWorkspaceInvite(ws.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	user := uuid.New()
	grant, err := collabService.AcceptInvite(user, inviteID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if grant.Scope != domain.GrantScopeWorkspace || grant.TargetID != ws.ID {
		t.Errorf("Expected workspace grant on %s, got %+v", ws.ID, grant)
	}
}

func TestAcceptInvite_Idempotent(t *testing.T) {
	collabService, pageService, publisher, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	inviteID, _ := collabService.CreatePageInvite(page.ID)
	user := uuid.New()

	first, err := collabService.AcceptInvite(user, inviteID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := collabService.AcceptInvite(user, inviteID)
	if err != nil {
		t.Fatalf("Expected no error on repeat accept, got %v", err)
	}
	if first.ID != second.ID {
		t.Error("Expected the same grant on repeat accept")
	}
	if len(publisher.UserEvents(ws.OwnerUserID)) != 1 {
		t.Error("Expected no second notification on repeat accept")
	}
}

func TestAcceptInvite_SelfInviteRejected(t *testing.T) {
	collabService, pageService, _, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	inviteID, _ := collabService.CreatePageInvite(page.ID)

	if _, err := collabService.AcceptInvite(ws.OwnerUserID, inviteID); !errors.Is(err, domain.ErrSelfInvite) {
		t.Errorf("Expected ErrSelfInvite, got %v", err)
	}
}

func TestAcceptInvite_UnknownInvite(t *testing.T) {
	collabService, _, _, _, _ := newCollabFixture(t)

	if _, err := collabService.AcceptInvite(uuid.New(), uuid.New().String()); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("Expected ErrInviteNotFound, got %v", err)
	}
}

func TestRevokePageInvite_GrantsSurvive(t *testing.T) {
	collabService, pageService, _, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	inviteID, _ := collabService.CreatePageInvite(page.ID)
	user := uuid.New()
	if _, err := collabService.AcceptInvite(user, inviteID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := collabService.RevokePageInvite(page.ID, inviteID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.HasInvite(inviteID) {
		t.Error("Expected invite to be revoked")
	}

	// The accepted grant remains usable
	if _, err := collabService.AcceptInvite(user, inviteID); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("Expected revoked invite to stop working, got %v", err)
	}
	has, err := collabService.grantRepo.HasPageGrantIn(user, []uuid.UUID{page.ID})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !has {
		t.Error("Expected the existing grant to survive revocation")
	}
}

func TestRevokePageInvite_Unknown(t *testing.T) {
	collabService, pageService, _, ws, publicRoot := newCollabFixture(t)
	page := mustCreatePage(t, pageService, ws.ID, publicRoot.ID, "Shared")

	if err := collabService.RevokePageInvite(page.ID, uuid.New().String()); !errors.Is(err, domain.ErrInviteNotFound) {
		t.Errorf("Expected ErrInviteNotFound, got %v", err)
	}
}

func TestRevokeWorkspaceInvite(t *testing.T) {
	collabService, _, _, ws, _ := newCollabFixture(t)

	inviteID, _ := collabService.CreateWorkspaceInvite(ws.ID)
	if err := collabService.RevokeWorkspaceInvite(ws.ID, inviteID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ws.HasInvite(inviteID) {
		t.Error("Expected workspace invite to be revoked")
	}
}
