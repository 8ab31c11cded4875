package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/lifelog/apiserver/types"
)

// ErrAdminPasswordRequired is returned by EnsureAdmin when the user store
// does not exist yet and no admin password was supplied. Startup must fail
// loudly in that case rather than run with an undiscoverable credential.
var ErrAdminPasswordRequired = errors.New("ADMIN_PASSWORD is required at first boot")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Count(ctx context.Context) (int, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// EnsureAdmin creates the single admin account at first boot. With an
// existing user store it is a no-op; users are immutable thereafter.
func (s *UserService) EnsureAdmin(ctx context.Context, adminPassword string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if adminPassword == "" {
		return ErrAdminPasswordRequired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = s.repo.Create(ctx, types.User{
		Username:     "admin",
		Role:         types.RoleAdmin,
		PasswordHash: string(hashed),
	})
	return err
}
