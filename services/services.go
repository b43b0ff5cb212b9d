package services

import (
	"net/http"

	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

// Service implements ServiceContainerInterface
type Service struct {
	tokenService        TokenServiceInterface
	authService         AuthServiceInterface
	profileService      ProfileServiceInterface
	organizationService OrganizationServiceInterface
}

// NewService creates the service container. sessionClient carries the session
// cookie; bearerClient additionally attaches the current access token.
func NewService(cfg *models.Config, sessionClient, bearerClient *http.Client, log logger.Logger) ServiceContainerInterface {
	sessionAPI := NewAPIClient(cfg.APIURL, sessionClient, log)
	bearerAPI := NewAPIClient(cfg.APIURL, bearerClient, log)

	return &Service{
		tokenService:        NewTokenService(sessionAPI, log),
		authService:         NewAuthService(sessionAPI, log),
		profileService:      NewProfileService(sessionAPI, log),
		organizationService: NewOrganizationService(bearerAPI, log),
	}
}

// GetTokenService returns the token service interface
func (s *Service) GetTokenService() TokenServiceInterface {
	return s.tokenService
}

// GetAuthService returns the auth service interface
func (s *Service) GetAuthService() AuthServiceInterface {
	return s.authService
}

// GetProfileService returns the profile service interface
func (s *Service) GetProfileService() ProfileServiceInterface {
	return s.profileService
}

// GetOrganizationService returns the organization service interface
func (s *Service) GetOrganizationService() OrganizationServiceInterface {
	return s.organizationService
}
