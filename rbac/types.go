package rbac

import (
	"strings"
)

// Resource is a resource type guarded by the dashboard
type Resource string

const (
	ResourceMCPServerConfiguration Resource = "mcp_server_configuration"
	ResourceConnectedAccount       Resource = "connected_account"
	ResourceMCPServerBundle        Resource = "mcp_server_bundle"
	ResourceOrganization           Resource = "organization"
	ResourceMember                 Resource = "member"
	ResourceTeam                   Resource = "team"
)

// OwnSuffix marks an action that only applies to resources the actor owns
const OwnSuffix = "-own"

// Permission identifies a resource action as "resource:action"
type Permission string

const (
	MCPServerConfigurationCreate Permission = "mcp_server_configuration:create"
	MCPServerConfigurationRead   Permission = "mcp_server_configuration:read"
	MCPServerConfigurationUpdate Permission = "mcp_server_configuration:update"
	MCPServerConfigurationDelete Permission = "mcp_server_configuration:delete"

	ConnectedAccountCreate    Permission = "connected_account:create"
	ConnectedAccountRead      Permission = "connected_account:read"
	ConnectedAccountDelete    Permission = "connected_account:delete"
	ConnectedAccountDeleteOwn Permission = "connected_account:delete-own"

	MCPServerBundleCreate    Permission = "mcp_server_bundle:create"
	MCPServerBundleRead      Permission = "mcp_server_bundle:read"
	MCPServerBundleUpdate    Permission = "mcp_server_bundle:update"
	MCPServerBundleDelete    Permission = "mcp_server_bundle:delete"
	MCPServerBundleDeleteOwn Permission = "mcp_server_bundle:delete-own"

	OrganizationUpdate Permission = "organization:update"

	MemberRead       Permission = "member:read"
	MemberInvite     Permission = "member:invite"
	MemberRemove     Permission = "member:remove"
	MemberUpdateRole Permission = "member:update_role"

	TeamCreate        Permission = "team:create"
	TeamRead          Permission = "team:read"
	TeamUpdate        Permission = "team:update"
	TeamDelete        Permission = "team:delete"
	TeamManageMembers Permission = "team:manage_members"
)

// AllPermissions is the closed set of permissions, in display order
var AllPermissions = []Permission{
	MCPServerConfigurationCreate,
	MCPServerConfigurationRead,
	MCPServerConfigurationUpdate,
	MCPServerConfigurationDelete,
	ConnectedAccountCreate,
	ConnectedAccountRead,
	ConnectedAccountDelete,
	ConnectedAccountDeleteOwn,
	MCPServerBundleCreate,
	MCPServerBundleRead,
	MCPServerBundleUpdate,
	MCPServerBundleDelete,
	MCPServerBundleDeleteOwn,
	OrganizationUpdate,
	MemberRead,
	MemberInvite,
	MemberRemove,
	MemberUpdateRole,
	TeamCreate,
	TeamRead,
	TeamUpdate,
	TeamDelete,
	TeamManageMembers,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// ParsePermission returns the permission named s if it is part of the closed set
func ParsePermission(s string) (Permission, bool) {
	p := Permission(strings.TrimSpace(s))
	if _, ok := knownPermissions[p]; !ok {
		return "", false
	}
	return p, true
}

// IsValid reports whether p is part of the closed set
func (p Permission) IsValid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// Resource returns the resource half of the permission
func (p Permission) Resource() Resource {
	resource, _, _ := strings.Cut(string(p), ":")
	return Resource(resource)
}

// Action returns the action half of the permission
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

// OwnScoped reports whether the permission only covers the actor's own resources
func (p Permission) OwnScoped() bool {
	return strings.HasSuffix(p.Action(), OwnSuffix)
}

// Own returns the "-own" variant of p, if one exists in the closed set
func (p Permission) Own() (Permission, bool) {
	if p.OwnScoped() {
		return p, true
	}
	own := p + OwnSuffix
	return own, own.IsValid()
}

func (p Permission) String() string {
	return string(p)
}

// Mode selects how CheckMultiplePermissions combines results
type Mode string

const (
	ModeAll Mode = "all"
	ModeAny Mode = "any"
)
