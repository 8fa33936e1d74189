package users

import (
	"time"

	"github.com/meridian-saas/meridian/internal/shared"
)

// User represents a managed user account.
type User struct {
	ID        int64
	Email     string
	Name      string
	Role      shared.Role
	TenantID  int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal projects the account into its authorization identity.
func (u User) Principal() shared.Principal {
	return shared.Principal{ID: u.ID, Email: u.Email, Role: u.Role, TenantID: u.TenantID}
}
