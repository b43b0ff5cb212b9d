package models

// ActiveOrganization is the organization currently selected as context
type ActiveOrganization struct {
	OrgID    string `json:"org_id"`
	OrgName  string `json:"org_name"`
	UserRole Role   `json:"user_role"` // the user's true role in this organization
}

// Organization is returned by POST /v1/organizations/
type Organization struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
}

// CreateOrganizationRequest represents the request structure for creating an organization
type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// SwitchOrganizationRequest is the gateway body for switching organizations
type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
}
