package auth

import (
	"time"

	"github.com/meridian-saas/meridian/internal/shared"
)

// User represents an account able to obtain credentials.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	TenantID     int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
