package rbac

import (
	"testing"

	"mcpadmin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rolePtr(r models.Role) *models.Role { return &r }

func TestRoleTableIsExhaustive(t *testing.T) {
	// every known role has a table entry and every entry holds known permissions
	for _, role := range models.AllRoles {
		granted, ok := roleTable[role]
		require.True(t, ok, "role %s missing from table", role)
		for p := range granted {
			assert.True(t, p.IsValid(), "role %s grants unknown permission %s", role, p)
		}
	}
	assert.Len(t, roleTable, len(models.AllRoles))

	for _, p := range AllPermissions {
		assert.True(t, CheckPermission(models.RoleAdmin, p), "admin lacks %s", p)
		_, _, found := cutPermission(p)
		assert.True(t, found, "%s is not resource:action", p)
	}
}

func cutPermission(p Permission) (string, string, bool) {
	r, a := string(p.Resource()), p.Action()
	return r, a, r != "" && a != ""
}

func TestCheckPermission(t *testing.T) {
	testCases := []struct {
		name string
		role models.Role
		perm Permission
		want bool
	}{
		{"admin updates organization", models.RoleAdmin, OrganizationUpdate, true},
		{"member reads bundles", models.RoleMember, MCPServerBundleRead, true},
		{"member cannot invite", models.RoleMember, MemberInvite, false},
		{"member cannot delete any account", models.RoleMember, ConnectedAccountDelete, false},
		{"member may delete own account", models.RoleMember, ConnectedAccountDeleteOwn, true},
		{"unknown permission", models.RoleAdmin, Permission("billing:read"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckPermission(tc.role, tc.perm))
		})
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	for _, role := range []models.Role{"", "Owner", "admin", "MEMBER"} {
		for _, p := range AllPermissions {
			assert.False(t, CheckPermission(role, p), "%q granted %s", role, p)
		}
		assert.Empty(t, GetPermissionsForRole(role))
	}
}

func TestCheckMultiplePermissions(t *testing.T) {
	mixed := []Permission{TeamRead, TeamDelete}

	for _, role := range []models.Role{models.RoleAdmin, models.RoleMember, "Ghost"} {
		for _, perms := range [][]Permission{nil, {}, {TeamRead}, mixed, AllPermissions} {
			allOK, anyOK := true, false
			for _, p := range perms {
				allOK = allOK && CheckPermission(role, p)
				anyOK = anyOK || CheckPermission(role, p)
			}
			assert.Equal(t, allOK, CheckMultiplePermissions(role, perms, ModeAll))
			assert.Equal(t, anyOK, CheckMultiplePermissions(role, perms, ModeAny))
		}
	}

	// quantifier boundaries on empty input
	assert.True(t, CheckMultiplePermissions(models.RoleMember, []Permission{}, ModeAll))
	assert.False(t, CheckMultiplePermissions(models.RoleMember, []Permission{}, ModeAny))
	assert.True(t, CheckMultiplePermissions("Ghost", nil, ModeAll))

	assert.False(t, CheckMultiplePermissions(models.RoleAdmin, []Permission{TeamRead}, Mode("most")))
}

func TestGetPermissionsForRole(t *testing.T) {
	assert.Equal(t, AllPermissions, GetPermissionsForRole(models.RoleAdmin))

	member := GetPermissionsForRole(models.RoleMember)
	assert.ElementsMatch(t, memberPermissions, member)
	for _, p := range member {
		assert.True(t, CheckPermission(models.RoleMember, p))
	}
}

func TestCheckOwnedPermission(t *testing.T) {
	assert.True(t, CheckOwnedPermission(models.RoleMember, MCPServerBundleDeleteOwn, "u1", "u1"))
	assert.False(t, CheckOwnedPermission(models.RoleMember, MCPServerBundleDeleteOwn, "u1", "u2"))
	assert.False(t, CheckOwnedPermission(models.RoleMember, MCPServerBundleDeleteOwn, "", ""))
	// the base check is never bypassed by ownership
	assert.False(t, CheckOwnedPermission("Ghost", MCPServerBundleDeleteOwn, "u1", "u1"))
	// non-own permissions ignore the owner
	assert.True(t, CheckOwnedPermission(models.RoleAdmin, MCPServerBundleDelete, "u1", "u2"))
}

func TestCanActOn(t *testing.T) {
	assert.True(t, CanActOn(models.RoleAdmin, ConnectedAccountDelete, "u1", "u2"))
	assert.True(t, CanActOn(models.RoleMember, ConnectedAccountDelete, "u1", "u1"))
	assert.False(t, CanActOn(models.RoleMember, ConnectedAccountDelete, "u1", "u2"))
	assert.False(t, CanActOn(models.RoleMember, TeamDelete, "u1", "u1"))
}

func TestPermissionHelpers(t *testing.T) {
	p, ok := ParsePermission(" team:read ")
	assert.True(t, ok)
	assert.Equal(t, TeamRead, p)
	_, ok = ParsePermission("team:fly")
	assert.False(t, ok)

	assert.Equal(t, ResourceConnectedAccount, ConnectedAccountDeleteOwn.Resource())
	assert.True(t, ConnectedAccountDeleteOwn.OwnScoped())
	own, ok := MCPServerBundleDelete.Own()
	assert.True(t, ok)
	assert.Equal(t, MCPServerBundleDeleteOwn, own)
	_, ok = TeamDelete.Own()
	assert.False(t, ok)
}

func TestEffectiveRole(t *testing.T) {
	assert.Equal(t, models.RoleAdmin, EffectiveRole(models.RoleAdmin, nil))
	assert.Equal(t, models.RoleMember, EffectiveRole(models.RoleAdmin, rolePtr(models.RoleMember)))
	// a member can never be promoted
	assert.Equal(t, models.RoleMember, EffectiveRole(models.RoleMember, rolePtr(models.RoleAdmin)))
	assert.Equal(t, models.RoleAdmin, EffectiveRole(models.RoleAdmin, rolePtr(models.RoleAdmin)))
	assert.Equal(t, models.Role("Ghost"), EffectiveRole("Ghost", rolePtr(models.RoleMember)))
}
