package repository

import (
	"context"
	"net/http"

	"mcpadmin/models"

	"golang.org/x/oauth2"
)

// TokenStoreInterface holds the current access token in memory
type TokenStoreInterface interface {
	oauth2.TokenSource

	Get() (*models.AccessToken, bool)
	Set(token *models.AccessToken)
	Clear()
}

// PreferenceRepositoryInterface persists the organization choice and the
// per-organization role override
type PreferenceRepositoryInterface interface {
	GetActiveOrganization(ctx context.Context) (*models.StoredPreference, bool)
	SetActiveOrganization(ctx context.Context, orgID, orgName string, role models.Role) error
	ClearActiveOrganization(ctx context.Context) error

	GetActiveRole(ctx context.Context, orgID string) (models.Role, bool)
	SetActiveRole(ctx context.Context, orgID string, role models.Role) error
	ClearActiveRole(ctx context.Context) error

	// GetStoredPreference combines the organization and its override without validating either
	GetStoredPreference(ctx context.Context) (*models.StoredPreference, bool)
	// ClearAll removes every key this application stored
	ClearAll(ctx context.Context) error
}

// SessionJar is a cookie jar whose cookies outlive the process
type SessionJar interface {
	http.CookieJar

	HasSession() bool
	Reset() error
}
