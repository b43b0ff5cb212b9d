package models

// Role is an organization membership role as issued by the backend
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// AllRoles lists every role the client knows about
var AllRoles = []Role{RoleAdmin, RoleMember}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the wire form of the role
func (r Role) String() string {
	return string(r)
}
