package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-saas/meridian/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, tenantID int64, email, name string, role shared.Role) (User, error)
	List(ctx context.Context, tenantID int64) ([]User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (shared.Principal, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, tenantID, id int64) error
	SetRole(ctx context.Context, tenantID, id int64, role shared.Role) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a provisioned account. The record starts inactive with no
// password; activation happens through a credential-reset flow.
func (r *Repository) Create(ctx context.Context, tenantID int64, email, name string, role shared.Role) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role, tenant_id, is_active)
		VALUES ($1, $2, '', $3, $4, FALSE)
		RETURNING id, email, name, role, tenant_id, is_active, created_at, updated_at`,
		email, name, string(role), tenantID)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, shared.ErrDuplicate
		}
		return User{}, err
	}
	return u, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// List returns all users of one tenant.
func (r *Repository) List(ctx context.Context, tenantID int64) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, role, tenant_id, is_active, created_at, updated_at
		FROM users WHERE tenant_id = $1 ORDER BY email`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FindByID fetches one user record.
func (r *Repository) FindByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, tenant_id, is_active, created_at, updated_at
		FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

// FindByEmail resolves a verified identity to its principal record. This is
// the Principal Lookup the authorization engine runs on every decision.
func (r *Repository) FindByEmail(ctx context.Context, email string) (shared.Principal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, role, tenant_id FROM users
		WHERE email = $1 AND is_active`, email)
	var p shared.Principal
	var role string
	if err := row.Scan(&p.ID, &p.Email, &role, &p.TenantID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.Principal{}, shared.ErrNotFound
		}
		return shared.Principal{}, err
	}
	p.Role = shared.ParseRole(role)
	return p, nil
}

// UpdateName renames a user.
func (r *Repository) UpdateName(ctx context.Context, id int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user, tenant-filtered as a second line of defense.
func (r *Repository) Delete(ctx context.Context, tenantID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetRole grants a role to a user within the tenant.
func (r *Repository) SetRole(ctx context.Context, tenantID, id int64, role shared.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $3, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`, id, tenantID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.TenantID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return User{}, err
	}
	u.Role = shared.ParseRole(role)
	return u, nil
}

var _ RepositoryPort = (*Repository)(nil)
