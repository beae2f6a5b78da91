package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	UpdateUser(ctx context.Context, id int64, updates map[string]interface{}) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Service handles user management logic. Account creation lives in the auth
// module; this covers the admin-facing CRUD.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateUser applies partial updates. Passwords are re-hashed here so the
// repository only ever sees the hash.
func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateInput) (User, error) {
	updates := make(map[string]interface{})
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return User{}, fmt.Errorf("%w: password must be at least 8 characters", shared.ErrInvalidRequest)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		updates["password"] = string(hash)
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.IsAdmin != nil {
		updates["is_admin"] = *input.IsAdmin
	}
	return s.repo.UpdateUser(ctx, id, updates)
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}
