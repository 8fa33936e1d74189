package authz

import (
	"context"
	"fmt"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Declarative permission kinds. Resource-owning services declare one of these
// at an operation's binding site instead of calling the engine inline; the
// guard resolves the kind to the matching require form before the operation
// runs. Outcomes are identical to calling the engine directly.

// FilePermission names a guarded file operation kind.
type FilePermission string

const (
	FileUpload          FilePermission = "UPLOAD"
	FileDownload        FilePermission = "DOWNLOAD"
	FileDelete          FilePermission = "DELETE"
	FilePermanentDelete FilePermission = "PERMANENT_DELETE"
	FileShare           FilePermission = "SHARE"
)

// UserPermission names a guarded user operation kind.
type UserPermission string

const (
	UserCreate      UserPermission = "CREATE"
	UserUpdate      UserPermission = "UPDATE"
	UserDelete      UserPermission = "DELETE"
	UserViewAll     UserPermission = "VIEW_ALL"
	UserManageRoles UserPermission = "MANAGE_ROLES"
)

// FileOp is the shape of a guarded file operation: the tenant owning the file
// is always the argument after the context.
type FileOp func(ctx context.Context, tenantID int64, key string) error

// UserOp is a tenant-scoped user collection operation.
type UserOp func(ctx context.Context, tenantID int64) error

// TargetUserOp operates on one specific user record.
type TargetUserOp func(ctx context.Context, target shared.Principal) error

// RoleAssignOp grants a role to a user within a tenant.
type RoleAssignOp func(ctx context.Context, tenantID int64, userID int64, role shared.Role) error

// Guard binds declared permission kinds to operations.
type Guard struct {
	engine *Engine
}

// NewGuard constructs a Guard over the engine.
func NewGuard(engine *Engine) *Guard {
	return &Guard{engine: engine}
}

// CurrentPrincipal resolves the caller exactly as the require forms do.
// Services that must authenticate before touching their repository use this
// so a failed lookup cannot reveal anything about the target.
func (g *Guard) CurrentPrincipal(ctx context.Context) (shared.Principal, error) {
	return g.engine.CurrentPrincipal(ctx)
}

// RequireFile dispatches a file permission kind to the engine.
func (g *Guard) RequireFile(ctx context.Context, kind FilePermission, tenantID int64) error {
	switch kind {
	case FileUpload, FileDelete, FileShare:
		return g.engine.RequireUploadPermission(ctx, tenantID)
	case FileDownload:
		return g.engine.RequireTenantAccess(ctx, tenantID)
	case FilePermanentDelete:
		return g.engine.RequirePermanentDeletePermission(ctx, tenantID)
	default:
		return fmt.Errorf("%w: unknown file permission %q", shared.ErrAccessDenied, kind)
	}
}

// RequireUser dispatches a collection-level user permission kind.
func (g *Guard) RequireUser(ctx context.Context, kind UserPermission, tenantID int64) error {
	switch kind {
	case UserCreate, UserDelete, UserViewAll:
		return g.engine.RequireUserManagementPermission(ctx, tenantID)
	default:
		return fmt.Errorf("%w: unknown user permission %q", shared.ErrAccessDenied, kind)
	}
}

// File returns op bound to the declared permission kind.
func (g *Guard) File(kind FilePermission, op FileOp) FileOp {
	return func(ctx context.Context, tenantID int64, key string) error {
		if err := g.RequireFile(ctx, kind, tenantID); err != nil {
			return err
		}
		return op(ctx, tenantID, key)
	}
}

// Users returns a tenant-scoped user operation bound to the declared kind.
func (g *Guard) Users(kind UserPermission, op UserOp) UserOp {
	return func(ctx context.Context, tenantID int64) error {
		if err := g.RequireUser(ctx, kind, tenantID); err != nil {
			return err
		}
		return op(ctx, tenantID)
	}
}

// TargetUser returns a per-record user operation guarded by the modification
// rule, which needs the target itself rather than just its tenant.
func (g *Guard) TargetUser(op TargetUserOp) TargetUserOp {
	return func(ctx context.Context, target shared.Principal) error {
		if err := g.engine.RequireUserModificationPermission(ctx, target); err != nil {
			return err
		}
		return op(ctx, target)
	}
}

// AssignRole returns a role-granting operation guarded by the assignment
// ceiling for the role being granted.
func (g *Guard) AssignRole(op RoleAssignOp) RoleAssignOp {
	return func(ctx context.Context, tenantID int64, userID int64, role shared.Role) error {
		if err := g.engine.RequireRoleAssignmentPermission(ctx, tenantID, role); err != nil {
			return err
		}
		return op(ctx, tenantID, userID, role)
	}
}
