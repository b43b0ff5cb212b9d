package rbac

import (
	"mcpadmin/models"
)

// memberPermissions is what every member of an organization may do
var memberPermissions = []Permission{
	MCPServerConfigurationRead,
	ConnectedAccountCreate,
	ConnectedAccountRead,
	ConnectedAccountDeleteOwn,
	MCPServerBundleCreate,
	MCPServerBundleRead,
	MCPServerBundleDeleteOwn,
	MemberRead,
	TeamRead,
}

// roleTable maps each role to the permissions it grants. Admin holds every permission.
var roleTable = map[models.Role]map[Permission]struct{}{
	models.RoleAdmin:  setOf(AllPermissions),
	models.RoleMember: setOf(memberPermissions),
}

func setOf(perms []Permission) map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return m
}
