// Package authz decides whether the current caller may perform an action on a
// tenant's data. Decisions are computed on demand from the principal and the
// target; nothing here is cached across requests and nothing here logs.
package authz

import "github.com/meridian-saas/meridian/internal/shared"

// Capability names a guarded action. Used for metrics labels and denial
// reasons, never for lookups outside this package.
type Capability string

const (
	CapabilityViewTenant       Capability = "tenant.view"
	CapabilityTenantSettings   Capability = "tenant.settings"
	CapabilityManageUsers      Capability = "users.manage"
	CapabilityModifyUser       Capability = "users.modify"
	CapabilityAssignRole       Capability = "users.assign_role"
	CapabilityUploadFiles      Capability = "files.upload"
	CapabilityPermanentDelete  Capability = "files.permanent_delete"
	CapabilityCreateAPIKeys    Capability = "apikeys.create"
	CapabilityManageWebhooks   Capability = "webhooks.manage"
	CapabilityViewActivityLogs Capability = "audit.view"
)

// capabilityGrants is the literal decision table for tenant-scoped
// capabilities. The tenant-isolation rule is applied before this table is
// consulted; rows therefore read as "within the caller's own tenant".
// Role assignment ceilings and per-target user modification deliberately
// break rank ordering and live in their own functions below.
var capabilityGrants = map[Capability]map[shared.Role]bool{
	CapabilityViewTenant: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
		shared.RoleTenantAdmin: true,
		shared.RoleUser:        true,
		shared.RoleViewer:      true,
	},
	CapabilityTenantSettings: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
	},
	CapabilityManageUsers: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
		shared.RoleTenantAdmin: true,
	},
	CapabilityUploadFiles: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
		shared.RoleTenantAdmin: true,
		shared.RoleUser:        true,
	},
	CapabilityPermanentDelete: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
	},
	CapabilityCreateAPIKeys: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
		shared.RoleTenantAdmin: true,
	},
	CapabilityManageWebhooks: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
	},
	CapabilityViewActivityLogs: {
		shared.RoleSuperAdmin:  true,
		shared.RoleTenantOwner: true,
		shared.RoleTenantAdmin: true,
	},
}

// WithinTenant is the isolation rule applied orthogonally to every
// capability: an operation targeting tenant T is denied unless the caller
// belongs to T or is a super admin. The single most important invariant in
// the system.
func WithinTenant(p shared.Principal, tenantID int64) bool {
	return p.Role == shared.RoleSuperAdmin || p.TenantID == tenantID
}

// Allows evaluates a tenant-scoped capability from the decision table.
func Allows(p shared.Principal, capability Capability, tenantID int64) bool {
	if !WithinTenant(p, tenantID) {
		return false
	}
	return capabilityGrants[capability][p.Role]
}

// CanViewTenant reports whether p may view tenant data.
func CanViewTenant(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityViewTenant, tenantID)
}

// CanModifyTenantSettings reports whether p may change tenant settings.
func CanModifyTenantSettings(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityTenantSettings, tenantID)
}

// CanManageUsers reports whether p may create, list and delete users in the
// tenant. Modification of a specific user is governed by CanModifyUser.
func CanManageUsers(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityManageUsers, tenantID)
}

// CanUploadFiles reports whether p may upload files into the tenant.
func CanUploadFiles(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityUploadFiles, tenantID)
}

// CanPermanentlyDeleteFiles reports whether p may purge files beyond recovery.
func CanPermanentlyDeleteFiles(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityPermanentDelete, tenantID)
}

// CanCreateAPIKeys reports whether p may mint API keys for the tenant.
func CanCreateAPIKeys(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityCreateAPIKeys, tenantID)
}

// CanManageWebhooks reports whether p may manage webhook subscriptions.
func CanManageWebhooks(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityManageWebhooks, tenantID)
}

// CanViewActivityLogs reports whether p may read detailed activity logs.
func CanViewActivityLogs(p shared.Principal, tenantID int64) bool {
	return Allows(p, CapabilityViewActivityLogs, tenantID)
}

// CanModifyUser decides modification of a specific target user. Not a rank
// comparison: every caller may modify their own record, tenant admins are
// capped at USER and VIEWER targets, owners reach any role in their tenant.
func CanModifyUser(p shared.Principal, target shared.Principal) bool {
	if p.Role == shared.RoleSuperAdmin {
		return true
	}
	if p.ID == target.ID {
		return true
	}
	if p.TenantID != target.TenantID {
		return false
	}
	switch p.Role {
	case shared.RoleTenantOwner:
		return true
	case shared.RoleTenantAdmin:
		return target.Role == shared.RoleUser || target.Role == shared.RoleViewer
	default:
		return false
	}
}

// CanAssignRole decides whether p may grant the given role to a user in the
// tenant. Ceilings: owners may assign anything short of SUPER_ADMIN, tenant
// admins only USER and VIEWER, everyone else nothing.
func CanAssignRole(p shared.Principal, tenantID int64, role shared.Role) bool {
	if p.Role == shared.RoleSuperAdmin {
		return true
	}
	if !WithinTenant(p, tenantID) {
		return false
	}
	switch p.Role {
	case shared.RoleTenantOwner:
		return role != shared.RoleSuperAdmin
	case shared.RoleTenantAdmin:
		return role == shared.RoleUser || role == shared.RoleViewer
	default:
		return false
	}
}
