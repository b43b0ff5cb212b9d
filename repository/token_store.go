package repository

import (
	"sync"

	"mcpadmin/models"

	"golang.org/x/oauth2"
)

// TokenStore keeps the access token in memory only. It is never persisted.
type TokenStore struct {
	mu    sync.RWMutex
	token *models.AccessToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

func (s *TokenStore) Get() (*models.AccessToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil, false
	}
	t := *s.token
	return &t, true
}

func (s *TokenStore) Set(token *models.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil
		return
	}
	t := *token
	s.token = &t
}

func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Token implements oauth2.TokenSource so bearer clients always send the
// latest token the controller stored.
func (s *TokenStore) Token() (*oauth2.Token, error) {
	t, ok := s.Get()
	if !ok || t.Value == "" {
		return nil, models.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: t.Value,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}, nil
}
