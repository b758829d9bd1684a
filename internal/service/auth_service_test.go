package service

import (
	"testing"

	"github.com/arborhq/arbor-backend/internal/testutil"
)

func newAuthFixture() (*AuthService, *testutil.MockUserRepository) {
	userRepo := testutil.NewMockUserRepository()
	pageRepo := testutil.NewMockPageRepository()
	wsRepo := testutil.NewMockWorkspaceRepository()
	pageService := NewPageService(pageRepo, wsRepo, testutil.NewMockPublicAddressRepository())
	workspaceService := NewWorkspaceService(wsRepo, pageRepo, pageService)
	return NewAuthService(userRepo, workspaceService), userRepo
}

func TestAuthenticateUser_NewUserGetsDefaultWorkspace(t *testing.T) {
	authService, _ := newAuthFixture()

	result, err := authService.AuthenticateUser("auth0|abc123", "new@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser to be true")
	}
	if result.Workspace == nil || result.Workspace.Name != "Personal" {
		t.Errorf("Expected default workspace 'Personal', got %+v", result.Workspace)
	}
	if !result.Workspace.IsComplete() {
		t.Error("Expected the default workspace to be complete")
	}
}

func TestAuthenticateUser_ExistingUser(t *testing.T) {
	authService, _ := newAuthFixture()

	first, err := authService.AuthenticateUser("auth0|abc123", "user@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := authService.AuthenticateUser("auth0|abc123", "user@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if second.IsNewUser {
		t.Error("Expected IsNewUser to be false on repeat authentication")
	}
	if second.User.ID != first.User.ID {
		t.Error("Expected the same user on repeat authentication")
	}
	if second.Workspace.ID != first.Workspace.ID {
		t.Error("Expected the same workspace on repeat authentication")
	}
}

func TestGetUserIDByAuth0ID(t *testing.T) {
	authService, _ := newAuthFixture()

	result, err := authService.AuthenticateUser("auth0|abc123", "user@example.com", nil, nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	id, err := authService.GetUserIDByAuth0ID("auth0|abc123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id != result.User.ID {
		t.Errorf("Expected user id %s, got %s", result.User.ID, id)
	}

	if _, err := authService.GetUserIDByAuth0ID("auth0|unknown"); err == nil {
		t.Error("Expected error for unknown auth0 id")
	}
}
