package products

import (
	"context"
	"fmt"

	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/masterdata/shared"
	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

// RepositoryPort defines data access methods for products.
type RepositoryPort interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
	HasMovements(ctx context.Context, id int64) (bool, error)
}

// Service handles product master data. Display reads of quantity go through
// the ledger's cache; the stored row stays authoritative.
type Service struct {
	repo       RepositoryPort
	quantities *ledger.QuantityCache
}

// NewService builds Service. quantities may be nil.
func NewService(repo RepositoryPort, quantities *ledger.QuantityCache) *Service {
	return &Service{repo: repo, quantities: quantities}
}

// List returns products and the total count.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// Get returns one product, serving the quantity from cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if s.quantities != nil {
		qty, err := s.quantities.Fetch(ctx, id, func(ctx context.Context) (int64, error) {
			return p.Quantity, nil
		})
		if err == nil {
			p.Quantity = qty
		}
	}
	return p, nil
}

// Create inserts a product. New products always start with zero quantity;
// stock arrives through IN movements.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

// Update mutates product master data, never quantity.
func (s *Service) Update(ctx context.Context, id int64, p Product) (Product, error) {
	if err := s.validate(p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, p)
}

// Delete removes a product without ledger history. Products that have moved
// stock keep their row so the movement log stays interpretable.
func (s *Service) Delete(ctx context.Context, id int64) error {
	moved, err := s.repo.HasMovements(ctx, id)
	if err != nil {
		return err
	}
	if moved {
		return fmt.Errorf("%w: product %d has movement history", internalShared.ErrInvalidState, id)
	}
	return s.repo.Delete(ctx, id)
}
