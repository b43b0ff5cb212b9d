package services

import (
	"context"

	"mcpadmin/models"
)

// TokenServiceInterface defines the contract for token acquisition
type TokenServiceInterface interface {
	IssueToken(ctx context.Context, actAs *models.ActAs) (*models.AccessToken, error)
	CurrentActAs() *models.ActAs
	ClearActAs()
}

// AuthServiceInterface defines the contract for the credential endpoints
type AuthServiceInterface interface {
	Register(ctx context.Context, req models.RegisterRequest) error
	Login(ctx context.Context, req models.LoginRequest) error
	Logout(ctx context.Context) error
}

// ProfileServiceInterface defines the contract for profile fetch
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, token string) (*models.UserProfile, error)
}

// OrganizationServiceInterface defines the contract for organization service
type OrganizationServiceInterface interface {
	CreateOrganization(ctx context.Context, req models.CreateOrganizationRequest) (*models.Organization, error)
}

// ServiceContainerInterface defines the main service container contract
type ServiceContainerInterface interface {
	GetTokenService() TokenServiceInterface
	GetAuthService() AuthServiceInterface
	GetProfileService() ProfileServiceInterface
	GetOrganizationService() OrganizationServiceInterface
}
