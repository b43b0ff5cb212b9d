package controller

import (
	"mcpadmin/models"
)

// ReconcileOrganization picks the organization to activate. A stored
// preference is honoured only when it names a current membership; otherwise
// the first membership in server order is chosen and stale is true. A nil
// choice means the profile has no memberships.
func ReconcileOrganization(profile *models.UserProfile, pref *models.StoredPreference) (chosen *models.OrganizationMembership, stale bool) {
	if profile == nil || len(profile.Organizations) == 0 {
		return nil, pref != nil
	}

	if pref != nil {
		if m, ok := profile.Membership(pref.OrganizationID); ok {
			return &m, false
		}
	}

	first := profile.Organizations[0]
	return &first, pref != nil
}
