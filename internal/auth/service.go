package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Unknown accounts,
// inactive accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredential
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredential
	}
	return user, nil
}

// Register creates a new account in the given tenant. New accounts start as
// USER; role elevation goes through user management afterwards.
func (s *Service) Register(ctx context.Context, email, name, password string, tenantID int64) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.CreateUser(ctx, email, name, string(hash), shared.RoleUser, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return user, nil
}
