package users

import (
	"context"
	"errors"

	"github.com/meridian-saas/meridian/internal/authz"
	"github.com/meridian-saas/meridian/internal/shared"
)

// Service handles user management. Every operation declares its permission
// kind at the boundary; the guard performs the matching check before the
// repository is touched.
type Service struct {
	repo  RepositoryPort
	guard *authz.Guard
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, guard *authz.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// Create provisions an account in a tenant. Requires CREATE. New accounts
// never start above USER; elevation goes through AssignRole and its ceiling.
func (s *Service) Create(ctx context.Context, tenantID int64, email, name string) (User, error) {
	var out User
	err := s.guard.Users(authz.UserCreate, func(ctx context.Context, tenantID int64) error {
		var err error
		out, err = s.repo.Create(ctx, tenantID, email, name, shared.RoleUser)
		return err
	})(ctx, tenantID)
	return out, err
}

// List returns all users of a tenant. Requires VIEW_ALL.
func (s *Service) List(ctx context.Context, tenantID int64) ([]User, error) {
	var out []User
	err := s.guard.Users(authz.UserViewAll, func(ctx context.Context, tenantID int64) error {
		var err error
		out, err = s.repo.List(ctx, tenantID)
		return err
	})(ctx, tenantID)
	return out, err
}

// UpdateName renames a user record. Requires UPDATE against the target, so
// the self-modification exception and the admin target ceiling apply. The
// caller is authenticated before the target is looked up, and a target in a
// foreign tenant is reported as missing: the error kind must not change with
// the existence of records the caller cannot see.
func (s *Service) UpdateName(ctx context.Context, userID int64, name string) error {
	caller, err := s.guard.CurrentPrincipal(ctx)
	if err != nil {
		return err
	}
	target, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	guarded := s.guard.TargetUser(func(ctx context.Context, target shared.Principal) error {
		return s.repo.UpdateName(ctx, target.ID, name)
	})
	if err := guarded(ctx, target.Principal()); err != nil {
		if errors.Is(err, shared.ErrAccessDenied) && !authz.WithinTenant(caller, target.TenantID) {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a user from a tenant. Requires DELETE.
func (s *Service) Delete(ctx context.Context, tenantID, userID int64) error {
	return s.guard.Users(authz.UserDelete, func(ctx context.Context, tenantID int64) error {
		return s.repo.Delete(ctx, tenantID, userID)
	})(ctx, tenantID)
}

// AssignRole grants a role to a user. Requires MANAGE_ROLES; the ceiling of
// the assigner's role applies to the role being granted.
func (s *Service) AssignRole(ctx context.Context, tenantID, userID int64, role shared.Role) error {
	return s.guard.AssignRole(func(ctx context.Context, tenantID, userID int64, role shared.Role) error {
		return s.repo.SetRole(ctx, tenantID, userID, role)
	})(ctx, tenantID, userID, role)
}
