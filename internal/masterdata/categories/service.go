package categories

import (
	"context"
	"fmt"
	"strings"

	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

// RepositoryPort defines data access methods for categories.
type RepositoryPort interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, name string) (Category, error)
	Update(ctx context.Context, id int64, name string) (Category, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles category master data.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string) (Category, error) {
	if strings.TrimSpace(name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", internalShared.ErrInvalidRequest)
	}
	return s.repo.Create(ctx, strings.TrimSpace(name))
}

func (s *Service) Update(ctx context.Context, id int64, name string) (Category, error) {
	if strings.TrimSpace(name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", internalShared.ErrInvalidRequest)
	}
	return s.repo.Update(ctx, id, strings.TrimSpace(name))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
