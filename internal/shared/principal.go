package shared

import "strings"

// Role identifies a caller's privilege level within a tenant.
type Role string

// Platform roles. SUPER_ADMIN ⊇ TENANT_OWNER ⊇ TENANT_ADMIN holds only for
// the coarse IsAdmin check; individual capabilities use their own rules.
const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleTenantOwner Role = "TENANT_OWNER"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleUser        Role = "USER"
	RoleViewer      Role = "VIEWER"
)

// RolePrefix is the canonical authority prefix carried on the request scope.
const RolePrefix = "ROLE_"

// LookupRole parses a raw role name strictly, tolerating a leading authority
// prefix. The second return is false for anything outside the known set.
func LookupRole(raw string) (Role, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	trimmed = strings.TrimPrefix(trimmed, RolePrefix)
	switch Role(trimmed) {
	case RoleSuperAdmin, RoleTenantOwner, RoleTenantAdmin, RoleUser, RoleViewer:
		return Role(trimmed), true
	default:
		return RoleViewer, false
	}
}

// ParseRole normalizes a raw role claim. Unknown values map to RoleViewer so
// a garbled claim never gains privilege; input that must be well-formed goes
// through LookupRole instead.
func ParseRole(raw string) Role {
	role, _ := LookupRole(raw)
	return role
}

// Authority renders the role with the canonical prefix, regardless of how the
// originating claim was spelled.
func (r Role) Authority() string {
	return RolePrefix + string(r)
}

// IsAdmin reports whether the role carries coarse administrative standing.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantOwner, RoleTenantAdmin:
		return true
	default:
		return false
	}
}

// PublicTenantID is the sentinel tenant used when resolution finds nothing.
const PublicTenantID int64 = 0

// PublicTenantSlug is the sentinel slug produced by the resolver.
const PublicTenantSlug = "public"

// Principal is the verified identity of the current caller. Immutable once
// loaded; never cached beyond a single request.
type Principal struct {
	ID       int64
	Email    string
	Role     Role
	TenantID int64
}
