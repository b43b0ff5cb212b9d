package services

import (
	"context"
	"net/http"

	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

const fallbackProfileMessage = "Failed to fetch user profile"

type ProfileService struct {
	api    *APIClient
	logger logger.Logger
}

func NewProfileService(api *APIClient, log logger.Logger) *ProfileService {
	return &ProfileService{
		api:    api,
		logger: log,
	}
}

// GetProfile fetches the current user's profile with an explicit bearer token.
// Every failure, including 401, is reported as ErrProfileFetch.
func (s *ProfileService) GetProfile(ctx context.Context, token string) (*models.UserProfile, error) {
	res, err := s.api.send(ctx, http.MethodGet, "/v1/users/me/profile", nil, token)
	if err != nil {
		return nil, transportError("fetch profile", models.ErrProfileFetch, err)
	}
	if !res.OK() {
		return nil, &models.RequestError{
			Kind:       models.ErrProfileFetch,
			Op:         "fetch profile",
			StatusCode: res.StatusCode,
			Message:    ErrorMessage(res.Body, fallbackProfileMessage),
		}
	}

	var profile models.UserProfile
	if err := res.decode(&profile); err != nil {
		return nil, &models.RequestError{
			Kind:       models.ErrProfileFetch,
			Op:         "fetch profile",
			StatusCode: res.StatusCode,
			Message:    err.Error(),
		}
	}

	s.logger.Debugf("Fetched profile for user %s with %d organizations", profile.UserID, len(profile.Organizations))
	return &profile, nil
}
