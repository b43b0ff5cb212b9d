package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"mcpadmin/dal"
	"mcpadmin/models"
	"mcpadmin/utils/logger"
)

// Durable storage keys
const (
	KeyActiveOrganization = "activeOrganization"
	KeyActiveRole         = "activeRole"
	KeySessionCookies     = "session_cookies"
)

// PreferenceRepository implements PreferenceRepositoryInterface on a KeyValueStore
type PreferenceRepository struct {
	store  dal.KeyValueStore
	logger logger.Logger
}

func NewPreferenceRepository(store dal.KeyValueStore, log logger.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		store:  store,
		logger: log,
	}
}

// ParsePreference decodes a stored organization preference. Anything that is
// not a well formed preference for a known role yields false.
func ParsePreference(raw []byte) (*models.StoredPreference, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var pref models.StoredPreference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, false
	}
	if pref.OrganizationID == "" || !pref.Role.IsValid() {
		return nil, false
	}
	if pref.ActingRole != nil && !pref.ActingRole.IsValid() {
		pref.ActingRole = nil
	}
	return &pref, true
}

// ParseRoleOverride decodes a stored role override
func ParseRoleOverride(raw []byte) (*models.RoleOverride, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var override models.RoleOverride
	if err := json.Unmarshal(raw, &override); err != nil {
		return nil, false
	}
	if override.OrganizationID == "" || !override.Role.IsValid() {
		return nil, false
	}
	return &override, true
}

func (r *PreferenceRepository) read(ctx context.Context, key string) []byte {
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warnf("Failed to read preference %s, treating as absent: %v", key, err)
		return nil
	}
	if !ok {
		return nil
	}
	return raw
}

func (r *PreferenceRepository) write(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to persist %s: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepository) GetActiveOrganization(ctx context.Context) (*models.StoredPreference, bool) {
	pref, ok := ParsePreference(r.read(ctx, KeyActiveOrganization))
	if !ok {
		return nil, false
	}
	pref.ActingRole = nil
	return pref, true
}

func (r *PreferenceRepository) SetActiveOrganization(ctx context.Context, orgID, orgName string, role models.Role) error {
	r.logger.Debugf("Persisting active organization %s", orgID)
	return r.write(ctx, KeyActiveOrganization, models.StoredPreference{
		OrganizationID:   orgID,
		OrganizationName: orgName,
		Role:             role,
	})
}

func (r *PreferenceRepository) ClearActiveOrganization(ctx context.Context) error {
	return r.store.Delete(ctx, KeyActiveOrganization)
}

// GetActiveRole returns the override only when it was stored for orgID
func (r *PreferenceRepository) GetActiveRole(ctx context.Context, orgID string) (models.Role, bool) {
	override, ok := ParseRoleOverride(r.read(ctx, KeyActiveRole))
	if !ok || override.OrganizationID != orgID {
		return "", false
	}
	return override.Role, true
}

func (r *PreferenceRepository) SetActiveRole(ctx context.Context, orgID string, role models.Role) error {
	r.logger.Debugf("Persisting role override %s for organization %s", role, orgID)
	return r.write(ctx, KeyActiveRole, models.RoleOverride{OrganizationID: orgID, Role: role})
}

func (r *PreferenceRepository) ClearActiveRole(ctx context.Context) error {
	return r.store.Delete(ctx, KeyActiveRole)
}

func (r *PreferenceRepository) GetStoredPreference(ctx context.Context) (*models.StoredPreference, bool) {
	pref, ok := r.GetActiveOrganization(ctx)
	if !ok {
		return nil, false
	}
	if role, ok := r.GetActiveRole(ctx, pref.OrganizationID); ok {
		pref.ActingRole = &role
	}
	return pref, true
}

func (r *PreferenceRepository) ClearAll(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear client storage: %w", err)
	}
	return nil
}
