package authz

import (
	"context"
	"fmt"

	"github.com/meridian-saas/meridian/internal/shared"
)

// PrincipalLookup resolves the full principal record for a verified identity.
// Backed by the user store; a read happens on the request's own execution path.
type PrincipalLookup interface {
	FindByEmail(ctx context.Context, email string) (shared.Principal, error)
}

// DecisionObserver receives the outcome of every evaluated check. Metrics
// implement it; a nil observer is fine.
type DecisionObserver interface {
	ObserveDecision(capability string, allowed bool)
}

// Engine evaluates authorization for the current request. The require forms
// return shared.ErrNotAuthenticated when no identity is established and
// shared.ErrAccessDenied (wrapped with a readable reason, never a secret)
// when the identity lacks privilege. Denials are logged by callers, not here.
type Engine struct {
	lookup   PrincipalLookup
	observer DecisionObserver
}

// NewEngine constructs an Engine. observer may be nil.
func NewEngine(lookup PrincipalLookup, observer DecisionObserver) *Engine {
	return &Engine{lookup: lookup, observer: observer}
}

// CurrentPrincipal resolves the authenticated caller from the request scope
// and the principal store. A missing identity and a vanished user are the
// same condition to callers: not authenticated.
func (e *Engine) CurrentPrincipal(ctx context.Context) (shared.Principal, error) {
	scope := shared.ScopeFromContext(ctx)
	if scope == nil || !scope.Identified() {
		return shared.Principal{}, shared.ErrNotAuthenticated
	}
	p, err := e.lookup.FindByEmail(ctx, scope.Subject())
	if err != nil {
		return shared.Principal{}, shared.ErrNotAuthenticated
	}
	return p, nil
}

func (e *Engine) observe(capability Capability, allowed bool) {
	if e.observer != nil {
		e.observer.ObserveDecision(string(capability), allowed)
	}
}

func (e *Engine) require(ctx context.Context, capability Capability, tenantID int64, reason string) error {
	p, err := e.CurrentPrincipal(ctx)
	if err != nil {
		return err
	}
	allowed := Allows(p, capability, tenantID)
	e.observe(capability, allowed)
	if !allowed {
		return fmt.Errorf("%w: %s", shared.ErrAccessDenied, reason)
	}
	return nil
}

// RequireTenantAccess enforces that the caller may view the tenant at all.
func (e *Engine) RequireTenantAccess(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityViewTenant, tenantID, "no access to this tenant")
}

// RequireTenantSettingsPermission guards tenant configuration changes.
func (e *Engine) RequireTenantSettingsPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityTenantSettings, tenantID, "tenant settings require the tenant owner")
}

// RequireUserManagementPermission guards user CRUD within a tenant.
func (e *Engine) RequireUserManagementPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityManageUsers, tenantID, "user management requires a tenant administrator")
}

// RequireUserModificationPermission guards changes to a specific user record.
func (e *Engine) RequireUserModificationPermission(ctx context.Context, target shared.Principal) error {
	p, err := e.CurrentPrincipal(ctx)
	if err != nil {
		return err
	}
	allowed := CanModifyUser(p, target)
	e.observe(CapabilityModifyUser, allowed)
	if !allowed {
		return fmt.Errorf("%w: cannot modify this user", shared.ErrAccessDenied)
	}
	return nil
}

// RequireRoleAssignmentPermission guards granting a role within a tenant.
func (e *Engine) RequireRoleAssignmentPermission(ctx context.Context, tenantID int64, role shared.Role) error {
	p, err := e.CurrentPrincipal(ctx)
	if err != nil {
		return err
	}
	allowed := CanAssignRole(p, tenantID, role)
	e.observe(CapabilityAssignRole, allowed)
	if !allowed {
		return fmt.Errorf("%w: cannot assign this role", shared.ErrAccessDenied)
	}
	return nil
}

// RequireUploadPermission guards file uploads into a tenant.
func (e *Engine) RequireUploadPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityUploadFiles, tenantID, "viewers cannot upload files")
}

// RequirePermanentDeletePermission guards irrecoverable file deletion.
func (e *Engine) RequirePermanentDeletePermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityPermanentDelete, tenantID, "permanent deletion requires the tenant owner")
}

// RequireAPIKeyPermission guards API key creation for a tenant.
func (e *Engine) RequireAPIKeyPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityCreateAPIKeys, tenantID, "api key creation requires a tenant administrator")
}

// RequireWebhookPermission guards webhook and subscription management.
func (e *Engine) RequireWebhookPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityManageWebhooks, tenantID, "webhook management requires the tenant owner")
}

// RequireActivityLogPermission guards detailed activity log access.
func (e *Engine) RequireActivityLogPermission(ctx context.Context, tenantID int64) error {
	return e.require(ctx, CapabilityViewActivityLogs, tenantID, "activity logs require a tenant administrator")
}
