package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-saas/meridian/internal/authz"
	"github.com/meridian-saas/meridian/internal/shared"
	"github.com/meridian-saas/meridian/internal/users"
)

type memRepo struct {
	records map[int64]users.User
}

func newMemRepo(records ...users.User) *memRepo {
	m := &memRepo{records: make(map[int64]users.User)}
	for _, u := range records {
		m.records[u.ID] = u
	}
	return m
}

func (m *memRepo) Create(ctx context.Context, tenantID int64, email, name string, role shared.Role) (users.User, error) {
	for _, u := range m.records {
		if u.Email == email {
			return users.User{}, shared.ErrDuplicate
		}
	}
	id := int64(len(m.records) + 1000)
	u := users.User{ID: id, Email: email, Name: name, Role: role, TenantID: tenantID}
	m.records[id] = u
	return u, nil
}

func (m *memRepo) List(ctx context.Context, tenantID int64) ([]users.User, error) {
	var out []users.User
	for _, u := range m.records {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memRepo) FindByID(ctx context.Context, id int64) (users.User, error) {
	u, ok := m.records[id]
	if !ok {
		return users.User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) FindByEmail(ctx context.Context, email string) (shared.Principal, error) {
	for _, u := range m.records {
		if u.Email == email && u.IsActive {
			return u.Principal(), nil
		}
	}
	return shared.Principal{}, shared.ErrNotFound
}

func (m *memRepo) UpdateName(ctx context.Context, id int64, name string) error {
	u, ok := m.records[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Name = name
	m.records[id] = u
	return nil
}

func (m *memRepo) Delete(ctx context.Context, tenantID, id int64) error {
	u, ok := m.records[id]
	if !ok || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memRepo) SetRole(ctx context.Context, tenantID, id int64, role shared.Role) error {
	u, ok := m.records[id]
	if !ok || u.TenantID != tenantID {
		return shared.ErrNotFound
	}
	u.Role = role
	m.records[id] = u
	return nil
}

func asContext(t *testing.T, p shared.Principal) context.Context {
	t.Helper()
	scope := shared.AcquireScope()
	t.Cleanup(scope.Release)
	scope.SetIdentity(p.Email, p.Role, p.TenantID)
	return shared.ContextWithScope(context.Background(), scope)
}

func fixture() (*memRepo, *users.Service) {
	repo := newMemRepo(
		users.User{ID: 10, Email: "owner@acme.test", Role: shared.RoleTenantOwner, TenantID: 5, IsActive: true},
		users.User{ID: 12, Email: "admin@acme.test", Role: shared.RoleTenantAdmin, TenantID: 5, IsActive: true},
		users.User{ID: 30, Email: "user@acme.test", Role: shared.RoleUser, TenantID: 5, IsActive: true},
		users.User{ID: 40, Email: "viewer@acme.test", Role: shared.RoleViewer, TenantID: 5, IsActive: true},
		users.User{ID: 90, Email: "stranger@other.test", Role: shared.RoleTenantOwner, TenantID: 9, IsActive: true},
	)
	engine := authz.NewEngine(repo, nil)
	return repo, users.NewService(repo, authz.NewGuard(engine))
}

func TestListRequiresManagement(t *testing.T) {
	repo, svc := fixture()

	admin, _ := repo.FindByEmail(context.Background(), "admin@acme.test")
	got, err := svc.List(asContext(t, admin), 5)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("listed %d users", len(got))
	}

	user, _ := repo.FindByEmail(context.Background(), "user@acme.test")
	if _, err := svc.List(asContext(t, user), 5); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("user list: expected ErrAccessDenied, got %v", err)
	}
}

func TestListDeniedCrossTenant(t *testing.T) {
	repo, svc := fixture()
	stranger, _ := repo.FindByEmail(context.Background(), "stranger@other.test")
	if _, err := svc.List(asContext(t, stranger), 5); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestUpdateNameSelfService(t *testing.T) {
	repo, svc := fixture()
	user, _ := repo.FindByEmail(context.Background(), "user@acme.test")

	if err := svc.UpdateName(asContext(t, user), 30, "Renamed Self"); err != nil {
		t.Fatalf("self rename: %v", err)
	}
	if got, _ := repo.FindByID(context.Background(), 30); got.Name != "Renamed Self" {
		t.Fatalf("name = %q", got.Name)
	}

	if err := svc.UpdateName(asContext(t, user), 40, "Nope"); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("renaming peer: expected ErrAccessDenied, got %v", err)
	}
}

func TestUpdateNameAdminCeiling(t *testing.T) {
	repo, svc := fixture()
	admin, _ := repo.FindByEmail(context.Background(), "admin@acme.test")

	if err := svc.UpdateName(asContext(t, admin), 30, "Renamed"); err != nil {
		t.Fatalf("admin renames USER: %v", err)
	}
	if err := svc.UpdateName(asContext(t, admin), 10, "Nope"); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("admin renames OWNER: expected ErrAccessDenied, got %v", err)
	}
}

func TestUpdateNameHidesForeignRecords(t *testing.T) {
	repo, svc := fixture()
	stranger, _ := repo.FindByEmail(context.Background(), "stranger@other.test")

	// User 30 exists in tenant 5; 99999 exists nowhere. A tenant-9 caller
	// must get the same error kind for both or the denial leaks existence.
	existing := svc.UpdateName(asContext(t, stranger), 30, "Renamed")
	missing := svc.UpdateName(asContext(t, stranger), 99999, "Renamed")
	if !errors.Is(existing, shared.ErrNotFound) {
		t.Fatalf("foreign existing target: expected ErrNotFound, got %v", existing)
	}
	if !errors.Is(missing, shared.ErrNotFound) {
		t.Fatalf("foreign missing target: expected ErrNotFound, got %v", missing)
	}
	if got, _ := repo.FindByID(context.Background(), 30); got.Name != "" {
		t.Fatalf("foreign target renamed to %q", got.Name)
	}

	if err := svc.UpdateName(context.Background(), 30, "Renamed"); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("anonymous on existing target: expected ErrNotAuthenticated, got %v", err)
	}
	if err := svc.UpdateName(context.Background(), 99999, "Renamed"); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("anonymous on missing target: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAssignRoleCeiling(t *testing.T) {
	repo, svc := fixture()
	admin, _ := repo.FindByEmail(context.Background(), "admin@acme.test")

	if err := svc.AssignRole(asContext(t, admin), 5, 40, shared.RoleUser); err != nil {
		t.Fatalf("admin assigns USER: %v", err)
	}
	if got, _ := repo.FindByID(context.Background(), 40); got.Role != shared.RoleUser {
		t.Fatalf("role = %s", got.Role)
	}

	if err := svc.AssignRole(asContext(t, admin), 5, 30, shared.RoleTenantOwner); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("admin assigns TENANT_OWNER: expected ErrAccessDenied, got %v", err)
	}

	owner, _ := repo.FindByEmail(context.Background(), "owner@acme.test")
	if err := svc.AssignRole(asContext(t, owner), 5, 30, shared.RoleTenantAdmin); err != nil {
		t.Fatalf("owner assigns TENANT_ADMIN: %v", err)
	}
	if err := svc.AssignRole(asContext(t, owner), 5, 30, shared.RoleSuperAdmin); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("owner assigns SUPER_ADMIN: expected ErrAccessDenied, got %v", err)
	}
}

func TestCreateProvisionsPlainUser(t *testing.T) {
	repo, svc := fixture()
	admin, _ := repo.FindByEmail(context.Background(), "admin@acme.test")

	created, err := svc.Create(asContext(t, admin), 5, "new@acme.test", "New Hire")
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.Role != shared.RoleUser {
		t.Fatalf("role = %s, new accounts must start as USER", created.Role)
	}
	if created.TenantID != 5 {
		t.Fatalf("tenant = %d", created.TenantID)
	}

	if _, err := svc.Create(asContext(t, admin), 5, "user@acme.test", "Dup"); !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("duplicate email: expected ErrDuplicate, got %v", err)
	}

	user, _ := repo.FindByEmail(context.Background(), "user@acme.test")
	if _, err := svc.Create(asContext(t, user), 5, "another@acme.test", "Nope"); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("plain user create: expected ErrAccessDenied, got %v", err)
	}
}

func TestDeleteRequiresManagement(t *testing.T) {
	repo, svc := fixture()
	viewer, _ := repo.FindByEmail(context.Background(), "viewer@acme.test")
	if err := svc.Delete(asContext(t, viewer), 5, 30); !errors.Is(err, shared.ErrAccessDenied) {
		t.Fatalf("viewer delete: expected ErrAccessDenied, got %v", err)
	}

	owner, _ := repo.FindByEmail(context.Background(), "owner@acme.test")
	if err := svc.Delete(asContext(t, owner), 5, 30); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestAnonymousDenied(t *testing.T) {
	_, svc := fixture()
	if _, err := svc.List(context.Background(), 5); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}
