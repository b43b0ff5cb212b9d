package models

// SessionStatus is the state of the session controller
type SessionStatus string

const (
	SessionChecking        SessionStatus = "checking"
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionNoOrganization  SessionStatus = "no_organization"
	SessionReady           SessionStatus = "ready"
	SessionRefreshing      SessionStatus = "refreshing"
)

// Authenticated reports whether the status is one of the authenticated sub-states
func (s SessionStatus) Authenticated() bool {
	return s == SessionNoOrganization || s == SessionReady || s == SessionRefreshing
}

// SessionState is a read-only snapshot of the controller state
type SessionState struct {
	Status             SessionStatus       `json:"status"`
	User               *UserProfile        `json:"user,omitempty"`
	ActiveOrganization *ActiveOrganization `json:"active_organization,omitempty"`
	RoleOverride       *Role               `json:"role_override,omitempty"`
	ActiveRole         Role                `json:"active_role,omitempty"`
	TransitionID       uint64              `json:"transition_id"`
	LastError          string              `json:"last_error,omitempty"`
}

// Clone returns a deep copy safe to hand to observers
func (s SessionState) Clone() SessionState {
	out := s
	if s.User != nil {
		user := *s.User
		user.Organizations = append([]OrganizationMembership(nil), s.User.Organizations...)
		out.User = &user
	}
	if s.ActiveOrganization != nil {
		org := *s.ActiveOrganization
		out.ActiveOrganization = &org
	}
	if s.RoleOverride != nil {
		role := *s.RoleOverride
		out.RoleOverride = &role
	}
	return out
}
