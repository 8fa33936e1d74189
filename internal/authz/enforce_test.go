package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-saas/meridian/internal/authz"
	"github.com/meridian-saas/meridian/internal/shared"
)

func nopFileOp(ctx context.Context, tenantID int64, key string) error { return nil }

// The declarative layer must produce outcomes identical to calling the
// engine's require forms inline, for every permission kind and caller role.
func TestGuardMatchesDirectEngineCalls(t *testing.T) {
	kinds := []authz.FilePermission{
		authz.FileUpload, authz.FileDownload, authz.FileDelete, authz.FilePermanentDelete, authz.FileShare,
	}
	direct := func(e *authz.Engine, kind authz.FilePermission, ctx context.Context, tenantID int64) error {
		switch kind {
		case authz.FileUpload, authz.FileDelete, authz.FileShare:
			return e.RequireUploadPermission(ctx, tenantID)
		case authz.FileDownload:
			return e.RequireTenantAccess(ctx, tenantID)
		default:
			return e.RequirePermanentDeletePermission(ctx, tenantID)
		}
	}

	roles := []shared.Role{shared.RoleSuperAdmin, shared.RoleTenantOwner, shared.RoleTenantAdmin, shared.RoleUser, shared.RoleViewer}
	for _, role := range roles {
		p := shared.Principal{ID: 7, Email: "caller@acme.test", Role: role, TenantID: 5}
		engine := newEngine(p)
		guard := authz.NewGuard(engine)
		for _, kind := range kinds {
			for _, tenantID := range []int64{5, 99} {
				ctx := authenticatedContext(t, p)
				wrapped := guard.File(kind, nopFileOp)(ctx, tenantID, "report.pdf")
				want := direct(engine, kind, ctx, tenantID)
				if (wrapped == nil) != (want == nil) {
					t.Fatalf("role %s kind %s tenant %d: guard=%v direct=%v", role, kind, tenantID, wrapped, want)
				}
				if wrapped != nil && !errors.Is(wrapped, shared.ErrAccessDenied) {
					t.Fatalf("role %s kind %s: unexpected error kind %v", role, kind, wrapped)
				}
			}
		}
	}
}

func TestGuardBlocksOperationOnDenial(t *testing.T) {
	viewer := shared.Principal{ID: 7, Email: "viewer@acme.test", Role: shared.RoleViewer, TenantID: 5}
	guard := authz.NewGuard(newEngine(viewer))

	var ran bool
	op := guard.File(authz.FileUpload, func(ctx context.Context, tenantID int64, key string) error {
		ran = true
		return nil
	})
	err := op(authenticatedContext(t, viewer), 5, "notes.txt")
	if !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if ran {
		t.Fatal("underlying operation must not run after denial")
	}
}

func TestGuardRunsOperationOnAllow(t *testing.T) {
	user := shared.Principal{ID: 7, Email: "user@acme.test", Role: shared.RoleUser, TenantID: 5}
	guard := authz.NewGuard(newEngine(user))

	var gotTenant int64
	var gotKey string
	op := guard.File(authz.FileUpload, func(ctx context.Context, tenantID int64, key string) error {
		gotTenant, gotKey = tenantID, key
		return nil
	})
	if err := op(authenticatedContext(t, user), 5, "notes.txt"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotTenant != 5 || gotKey != "notes.txt" {
		t.Fatalf("operation saw %d/%q", gotTenant, gotKey)
	}
}

func TestGuardUserKinds(t *testing.T) {
	admin := shared.Principal{ID: 12, Email: "admin@acme.test", Role: shared.RoleTenantAdmin, TenantID: 5}
	owner := shared.Principal{ID: 13, Email: "owner@acme.test", Role: shared.RoleTenantOwner, TenantID: 5}
	engine := newEngine(admin, owner)
	guard := authz.NewGuard(engine)

	list := guard.Users(authz.UserViewAll, func(ctx context.Context, tenantID int64) error { return nil })
	if err := list(authenticatedContext(t, admin), 5); err != nil {
		t.Fatalf("admin list users: %v", err)
	}
	if err := list(authenticatedContext(t, admin), 99); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("cross-tenant list: expected ErrAccessDenied, got %v", err)
	}

	assign := guard.AssignRole(func(ctx context.Context, tenantID, userID int64, role shared.Role) error { return nil })
	if err := assign(authenticatedContext(t, admin), 5, 30, shared.RoleViewer); err != nil {
		t.Fatalf("admin assigns VIEWER: %v", err)
	}
	if err := assign(authenticatedContext(t, admin), 5, 30, shared.RoleTenantOwner); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("admin assigns TENANT_OWNER: expected ErrAccessDenied, got %v", err)
	}

	modify := guard.TargetUser(func(ctx context.Context, target shared.Principal) error { return nil })
	ownerRecord := shared.Principal{ID: 13, Email: "owner@acme.test", Role: shared.RoleTenantOwner, TenantID: 5}
	if err := modify(authenticatedContext(t, admin), ownerRecord); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("admin modifying owner: expected ErrAccessDenied, got %v", err)
	}
	if err := modify(authenticatedContext(t, owner), ownerRecord); err != nil {
		t.Fatalf("owner modifying self: %v", err)
	}
}
