package services

import (
	"context"
	"net/http"
	"sync"

	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

const fallbackTokenMessage = "Failed to issue access token"

// TokenService exchanges the session credential for short-lived access tokens
type TokenService struct {
	api    *APIClient
	logger logger.Logger

	mu      sync.RWMutex
	current *models.ActAs
}

func NewTokenService(api *APIClient, log logger.Logger) *TokenService {
	return &TokenService{
		api:    api,
		logger: log,
	}
}

// IssueToken requests a token, scoped to actAs when it is non-nil. The
// session cookie is attached by the client's jar.
func (s *TokenService) IssueToken(ctx context.Context, actAs *models.ActAs) (*models.AccessToken, error) {
	req := models.TokenRequest{}
	if actAs != nil {
		scope := *actAs
		req.ActAs = &scope
	}

	res, err := s.api.send(ctx, http.MethodPost, "/v1/auth/token", req, "")
	if err != nil {
		s.logger.Warnf("Token request failed: %v", err)
		return nil, transportError("issue token", models.ErrTokenIssuance, err)
	}
	if !res.OK() {
		reqErr := requestError("issue token", models.ErrTokenIssuance, res, fallbackTokenMessage)
		s.logger.Debugf("Token endpoint rejected request: %v", reqErr)
		return nil, reqErr
	}

	var body models.TokenResponse
	if err := res.decode(&body); err != nil || body.Token == "" {
		return nil, &models.RequestError{
			Kind:       models.ErrTokenIssuance,
			Op:         "issue token",
			StatusCode: res.StatusCode,
			Message:    fallbackTokenMessage,
		}
	}

	token := models.ParseAccessToken(body.Token)
	// opaque tokens carry no claims, so the requested scope stands in
	if token.ActAs == nil && req.ActAs != nil {
		token.ActAs = req.ActAs
	}

	s.mu.Lock()
	if token.ActAs != nil {
		scope := *token.ActAs
		s.current = &scope
	} else {
		s.current = nil
	}
	s.mu.Unlock()

	if token.ActAs != nil {
		s.logger.Debugf("Issued access token scoped to %s as %s", token.ActAs.OrganizationID, token.ActAs.Role)
	} else {
		s.logger.Debug("Issued unscoped access token")
	}
	return token, nil
}

// CurrentActAs returns the scope of the most recently issued token
func (s *TokenService) CurrentActAs() *models.ActAs {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	scope := *s.current
	return &scope
}

// ClearActAs forgets the last issued scope
func (s *TokenService) ClearActAs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
