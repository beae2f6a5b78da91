package ledger

import (
	"context"
	"fmt"

	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByProduct(ctx context.Context, filter ListFilter) ([]Movement, error)
	Get(ctx context.Context, id int64) (Movement, error)
	SumMovements(ctx context.Context, productID int64) (int64, error)
	GetProductQuantity(ctx context.Context, productID int64) (int64, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
}

// Invalidator drops cached quantities after a successful apply.
type Invalidator interface {
	Invalidate(ctx context.Context, productID int64) error
}

// Service coordinates the movement log and the quantity projection.
type Service struct {
	repo  RepositoryPort
	cache Invalidator
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, cache Invalidator) *Service {
	return &Service{repo: repo, cache: cache}
}

// Apply performs the admission-controlled movement append against an open
// transaction: lock the product row, check the new quantity, append the
// movement, write the projection. Order placement reuses this so every debit
// in the system goes through the same path.
func Apply(ctx context.Context, tx TxRepository, productID, delta int64, typ MovementType) (Movement, error) {
	quantity, err := tx.GetProductQuantityForUpdate(ctx, productID)
	if err != nil {
		return Movement{}, err
	}
	newQuantity := quantity + delta
	if newQuantity < 0 {
		return Movement{}, fmt.Errorf("%w: product %d has %d on hand, movement of %d refused",
			shared.ErrInsufficientStock, productID, quantity, delta)
	}
	movement, err := tx.InsertMovement(ctx, productID, delta, typ)
	if err != nil {
		return Movement{}, err
	}
	if err := tx.UpdateProductQuantity(ctx, productID, newQuantity); err != nil {
		return Movement{}, err
	}
	return movement, nil
}

// Append validates and durably appends one movement in its own atomic unit.
func (s *Service) Append(ctx context.Context, input AppendInput) (Movement, error) {
	if err := validateAppend(input); err != nil {
		return Movement{}, err
	}
	var movement Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		movement, err = Apply(ctx, tx, input.ProductID, input.Delta, input.Type)
		return err
	})
	if err != nil {
		return Movement{}, err
	}
	s.invalidate(ctx, input.ProductID)
	return movement, nil
}

// ListByProduct returns a product's movements, oldest first. A missing
// product fails with not found rather than an empty list.
func (s *Service) ListByProduct(ctx context.Context, filter ListFilter) ([]Movement, error) {
	if filter.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product id required", shared.ErrInvalidRequest)
	}
	if _, err := s.repo.GetProductQuantity(ctx, filter.ProductID); err != nil {
		return nil, err
	}
	return s.repo.ListByProduct(ctx, filter)
}

// Get returns a single movement.
func (s *Service) Get(ctx context.Context, id int64) (Movement, error) {
	return s.repo.Get(ctx, id)
}

// Recompute folds all movements for a product in creation order. It must
// produce the same value the incremental projection maintains; the audit job
// flags any drift.
func (s *Service) Recompute(ctx context.Context, productID int64) (int64, error) {
	if _, err := s.repo.GetProductQuantity(ctx, productID); err != nil {
		return 0, err
	}
	return s.repo.SumMovements(ctx, productID)
}

// Quantity returns the stored on-hand quantity.
func (s *Service) Quantity(ctx context.Context, productID int64) (int64, error) {
	return s.repo.GetProductQuantity(ctx, productID)
}

// AuditProduct compares the stored quantity against a full recompute.
func (s *Service) AuditProduct(ctx context.Context, productID int64) (stored, recomputed int64, err error) {
	stored, err = s.repo.GetProductQuantity(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	recomputed, err = s.repo.SumMovements(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	return stored, recomputed, nil
}

// ProductIDs lists every product subject to audit.
func (s *Service) ProductIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ListProductIDs(ctx)
}

func (s *Service) invalidate(ctx context.Context, productID int64) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, productID)
	}
}

func validateAppend(input AppendInput) error {
	if input.ProductID <= 0 {
		return fmt.Errorf("%w: product id required", shared.ErrInvalidRequest)
	}
	if input.Delta == 0 {
		return fmt.Errorf("%w: quantity change must be non-zero", shared.ErrInvalidRequest)
	}
	if !input.Type.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", shared.ErrInvalidRequest, input.Type)
	}
	if input.Type == MovementTypeIn && input.Delta < 0 {
		return fmt.Errorf("%w: IN movements must have a positive quantity change", shared.ErrInvalidRequest)
	}
	if input.Type == MovementTypeOut && input.Delta > 0 {
		return fmt.Errorf("%w: OUT movements must have a negative quantity change", shared.ErrInvalidRequest)
	}
	return nil
}
