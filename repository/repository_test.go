package repository

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"mcpadmin/dal"
	"mcpadmin/models"
	"mcpadmin/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTokenStore(t *testing.T) {
	store := NewTokenStore()

	_, ok := store.Get()
	assert.False(t, ok)
	_, err := store.Token()
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	expiry := time.Now().Add(5 * time.Minute)
	store.Set(&models.AccessToken{
		Value:     "abc",
		ActAs:     &models.ActAs{OrganizationID: "o1", Role: models.RoleAdmin},
		ExpiresAt: expiry,
	})

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "abc", got.Value)

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, expiry, tok.Expiry)

	store.Clear()
	_, ok = store.Get()
	assert.False(t, ok)
}

// failingStore returns errors for every operation
type failingStore struct{ dal.MemoryStore }

func (f *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("storage offline")
}

// PreferenceRepositoryTestSuite defines a test suite for the preference store
type PreferenceRepositoryTestSuite struct {
	suite.Suite
	store *dal.MemoryStore
	repo  *PreferenceRepository
	ctx   context.Context
}

func (suite *PreferenceRepositoryTestSuite) SetupTest() {
	suite.store = dal.NewMemoryStore()
	suite.repo = NewPreferenceRepository(suite.store, logger.NewNopLogger())
	suite.ctx = context.Background()
}

func (suite *PreferenceRepositoryTestSuite) TestActiveOrganizationRoundTrip() {
	_, ok := suite.repo.GetActiveOrganization(suite.ctx)
	assert.False(suite.T(), ok)

	require.NoError(suite.T(), suite.repo.SetActiveOrganization(suite.ctx, "o1", "Acme", models.RoleAdmin))

	pref, ok := suite.repo.GetActiveOrganization(suite.ctx)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "o1", pref.OrganizationID)
	assert.Equal(suite.T(), "Acme", pref.OrganizationName)
	assert.Equal(suite.T(), models.RoleAdmin, pref.Role)

	require.NoError(suite.T(), suite.repo.ClearActiveOrganization(suite.ctx))
	_, ok = suite.repo.GetActiveOrganization(suite.ctx)
	assert.False(suite.T(), ok)
}

func (suite *PreferenceRepositoryTestSuite) TestActiveRoleScopedToOrganization() {
	require.NoError(suite.T(), suite.repo.SetActiveRole(suite.ctx, "o1", models.RoleMember))

	role, ok := suite.repo.GetActiveRole(suite.ctx, "o1")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), models.RoleMember, role)

	_, ok = suite.repo.GetActiveRole(suite.ctx, "o2")
	assert.False(suite.T(), ok)

	require.NoError(suite.T(), suite.repo.ClearActiveRole(suite.ctx))
	_, ok = suite.repo.GetActiveRole(suite.ctx, "o1")
	assert.False(suite.T(), ok)
}

func (suite *PreferenceRepositoryTestSuite) TestStoredPreferenceCombinesOverride() {
	require.NoError(suite.T(), suite.repo.SetActiveOrganization(suite.ctx, "o1", "Acme", models.RoleAdmin))
	require.NoError(suite.T(), suite.repo.SetActiveRole(suite.ctx, "o1", models.RoleMember))

	pref, ok := suite.repo.GetStoredPreference(suite.ctx)
	require.True(suite.T(), ok)
	require.NotNil(suite.T(), pref.ActingRole)
	assert.Equal(suite.T(), models.RoleMember, *pref.ActingRole)

	// an override for another organization is never attached
	require.NoError(suite.T(), suite.repo.SetActiveRole(suite.ctx, "o2", models.RoleMember))
	pref, ok = suite.repo.GetStoredPreference(suite.ctx)
	require.True(suite.T(), ok)
	assert.Nil(suite.T(), pref.ActingRole)
}

func (suite *PreferenceRepositoryTestSuite) TestCorruptEntriesReadAsAbsent() {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"wrong shape", `["o1"]`},
		{"missing organization", `{"organizationName":"Acme","role":"Admin"}`},
		{"unknown role", `{"organizationId":"o1","role":"Owner"}`},
		{"empty", ""},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			require.NoError(t, suite.store.Set(suite.ctx, KeyActiveOrganization, []byte(tc.raw)))
			require.NoError(t, suite.store.Set(suite.ctx, KeyActiveRole, []byte(tc.raw)))

			_, ok := suite.repo.GetActiveOrganization(suite.ctx)
			assert.False(t, ok)
			_, ok = suite.repo.GetActiveRole(suite.ctx, "o1")
			assert.False(t, ok)
		})
	}
}

func (suite *PreferenceRepositoryTestSuite) TestStorageErrorsReadAsAbsent() {
	repo := NewPreferenceRepository(&failingStore{}, logger.NewNopLogger())
	_, ok := repo.GetStoredPreference(suite.ctx)
	assert.False(suite.T(), ok)
	_, ok = repo.GetActiveRole(suite.ctx, "o1")
	assert.False(suite.T(), ok)
}

func (suite *PreferenceRepositoryTestSuite) TestClearAll() {
	require.NoError(suite.T(), suite.repo.SetActiveOrganization(suite.ctx, "o1", "Acme", models.RoleAdmin))
	require.NoError(suite.T(), suite.repo.SetActiveRole(suite.ctx, "o1", models.RoleMember))
	require.NoError(suite.T(), suite.store.Set(suite.ctx, KeySessionCookies, []byte("[]")))

	require.NoError(suite.T(), suite.repo.ClearAll(suite.ctx))
	assert.Equal(suite.T(), 0, suite.store.Len())
}

func TestPreferenceRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PreferenceRepositoryTestSuite))
}

func TestParsePreferenceDropsUnknownActingRole(t *testing.T) {
	pref, ok := ParsePreference([]byte(`{"organizationId":"o1","organizationName":"Acme","role":"Admin","actingRole":"Root"}`))
	require.True(t, ok)
	assert.Nil(t, pref.ActingRole)
}

func TestCookieJarPersistsAcrossInstances(t *testing.T) {
	store := dal.NewMemoryStore()
	log := logger.NewNopLogger()
	api, _ := url.Parse("http://api.example.com")

	jar, err := NewCookieJar(api.String(), store, log)
	require.NoError(t, err)
	assert.False(t, jar.HasSession())

	jar.SetCookies(api, []*http.Cookie{{Name: "session", Value: "opaque", Path: "/", HttpOnly: true}})
	assert.True(t, jar.HasSession())

	// foreign origins are not persisted
	other, _ := url.Parse("http://tracker.example.org")
	jar.SetCookies(other, []*http.Cookie{{Name: "t", Value: "x"}})

	restored, err := NewCookieJar(api.String(), store, log)
	require.NoError(t, err)
	cookies := restored.Cookies(api)
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.Equal(t, "opaque", cookies[0].Value)
	assert.Empty(t, restored.Cookies(other))
}

func TestCookieJarExpiryAndReset(t *testing.T) {
	store := dal.NewMemoryStore()
	api, _ := url.Parse("http://api.example.com")
	jar, err := NewCookieJar(api.String(), store, logger.NewNopLogger())
	require.NoError(t, err)

	jar.SetCookies(api, []*http.Cookie{{Name: "session", Value: "v", Path: "/"}})
	jar.SetCookies(api, []*http.Cookie{{Name: "session", Value: "", Path: "/", MaxAge: -1}})
	assert.False(t, jar.HasSession())
	_, ok, _ := store.Get(context.Background(), KeySessionCookies)
	assert.False(t, ok)

	jar.SetCookies(api, []*http.Cookie{{Name: "session", Value: "v2", Path: "/"}})
	require.NoError(t, jar.Reset())
	assert.False(t, jar.HasSession())
	assert.Equal(t, 0, store.Len())
}
