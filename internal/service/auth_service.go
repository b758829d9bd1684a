package service

import (
	"github.com/arborhq/arbor-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo         domain.UserRepository
	workspaceService *WorkspaceService
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, workspaceService *WorkspaceService) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		workspaceService: workspaceService,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Workspace *domain.Workspace
	IsNewUser bool
}

// AuthenticateUser handles the authentication flow after Auth0 callback.
// Creates the user and a default workspace if they don't exist.
func (s *AuthService) AuthenticateUser(auth0ID, email string, name, pictureURL *string) (*AuthResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name, pictureURL)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	workspaces, err := s.workspaceService.ListWorkspaces(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to list workspaces")
		return nil, err
	}

	if len(workspaces) == 0 {
		workspace, err := s.workspaceService.CreateWorkspace(user.ID, "Personal")
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default workspace")
			return nil, err
		}
		log.Info().Str("user_id", user.ID.String()).Msg("Created new user with default workspace")
		return &AuthResult{User: user, Workspace: workspace, IsNewUser: true}, nil
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
	return &AuthResult{User: user, Workspace: workspaces[0], IsNewUser: false}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetUserIDByAuth0ID resolves an Auth0 subject to the internal user id.
// Satisfies the WebSocket validator's lookup interface.
func (s *AuthService) GetUserIDByAuth0ID(auth0ID string) (uuid.UUID, error) {
	user, err := s.userRepo.GetByAuth0ID(auth0ID)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
