package models

// StoredPreference is the persisted organization choice. It is advisory and
// re-validated against the live profile at every bootstrap.
type StoredPreference struct {
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	Role             Role   `json:"role"`
	ActingRole       *Role  `json:"actingRole,omitempty"`
}

// RoleOverride is the persisted "act as" role, scoped to one organization
type RoleOverride struct {
	OrganizationID string `json:"organizationId"`
	Role           Role   `json:"role"`
}
