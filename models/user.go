package models

// OrganizationMembership is one entry of the profile's organization list
type OrganizationMembership struct {
	OrganizationID   string `json:"organization_id"`
	OrganizationName string `json:"organization_name"`
	Role             Role   `json:"role"`
}

// UserProfile is returned by GET /v1/users/me/profile
type UserProfile struct {
	UserID        string                   `json:"user_id"`
	Name          string                   `json:"name"`
	Email         string                   `json:"email"`
	Organizations []OrganizationMembership `json:"organizations"`
}

// Membership returns the membership for orgID in server order, if any
func (p *UserProfile) Membership(orgID string) (OrganizationMembership, bool) {
	if p == nil {
		return OrganizationMembership{}, false
	}
	for _, org := range p.Organizations {
		if org.OrganizationID == orgID {
			return org, true
		}
	}
	return OrganizationMembership{}, false
}

// RegisterRequest represents the request structure for email registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the request structure for email login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
