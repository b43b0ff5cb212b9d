package rbac

import (
	"mcpadmin/models"
)

// CheckPermission reports whether role grants perm. Unknown roles and
// unknown permissions are denied.
func CheckPermission(role models.Role, perm Permission) bool {
	granted, ok := roleTable[role]
	if !ok {
		return false
	}
	_, ok = granted[perm]
	return ok
}

// CheckMultiplePermissions combines CheckPermission over perms. With ModeAll an
// empty list is allowed, with ModeAny it is denied. Unknown modes deny.
func CheckMultiplePermissions(role models.Role, perms []Permission, mode Mode) bool {
	switch mode {
	case ModeAll:
		for _, p := range perms {
			if !CheckPermission(role, p) {
				return false
			}
		}
		return true
	case ModeAny:
		for _, p := range perms {
			if CheckPermission(role, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// GetPermissionsForRole lists the permissions role grants in display order
func GetPermissionsForRole(role models.Role) []Permission {
	granted, ok := roleTable[role]
	if !ok {
		return []Permission{}
	}
	out := make([]Permission, 0, len(granted))
	for _, p := range AllPermissions {
		if _, ok := granted[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CheckOwnedPermission layers the ownership rule on top of CheckPermission:
// an "-own" permission also requires actorID to equal ownerID.
func CheckOwnedPermission(role models.Role, perm Permission, actorID, ownerID string) bool {
	if !CheckPermission(role, perm) {
		return false
	}
	if !perm.OwnScoped() {
		return true
	}
	return actorID != "" && actorID == ownerID
}

// CanActOn reports whether role may perform perm on a resource owned by
// ownerID. The unrestricted permission is tried first, then its "-own" variant.
func CanActOn(role models.Role, perm Permission, actorID, ownerID string) bool {
	if CheckPermission(role, perm) && !perm.OwnScoped() {
		return true
	}
	own, ok := perm.Own()
	if !ok {
		return false
	}
	return CheckOwnedPermission(role, own, actorID, ownerID)
}

// EffectiveRole resolves the role permission checks run under. An override
// is only honoured when it narrows an Admin to Member.
func EffectiveRole(trueRole models.Role, override *models.Role) models.Role {
	if override != nil && trueRole == models.RoleAdmin && *override == models.RoleMember {
		return models.RoleMember
	}
	return trueRole
}
