package orders

import (
	"context"
	"fmt"
	"sort"

	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// Service coordinates order placement against the stock ledger. Every debit
// and restock goes through ledger.Apply inside the order's own transaction,
// so no partial reservation is ever observable outside it.
type Service struct {
	repo        Repository
	cache       ledger.Invalidator
	idempotency *shared.IdempotencyStore
}

// NewService builds Service. cache and idem may be nil.
func NewService(repo Repository, cache ledger.Invalidator, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, cache: cache, idempotency: idem}
}

// PlaceOrder atomically validates availability, reserves stock and creates
// the order. idemKey is an optional client-supplied idempotency key.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, req PlaceOrderRequest, idemKey string) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", shared.ErrInvalidRequest)
	}
	seen := make(map[int64]bool, len(req.Items))
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: every item needs a product id and a positive quantity", shared.ErrInvalidRequest)
		}
		if seen[item.ProductID] {
			return nil, fmt.Errorf("%w: product %d listed more than once", shared.ErrInvalidRequest, item.ProductID)
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}
	// Fixed global lock order regardless of request order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	insertedKey := false
	if s.idempotency != nil && idemKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "orders"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	requested := make(map[int64]int64, len(req.Items))
	for _, item := range req.Items {
		requested[item.ProductID] = item.Quantity
	}

	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		refs, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		priced := make(map[int64]ProductRef, len(refs))
		for _, ref := range refs {
			priced[ref.ID] = ref
		}
		for _, id := range ids {
			if _, ok := priced[id]; !ok {
				return fmt.Errorf("%w: product %d", shared.ErrNotFound, id)
			}
		}

		var total float64
		for _, id := range ids {
			total += priced[id].Price * float64(requested[id])
		}

		orderID, err := tx.CreateOrder(ctx, Order{
			UserID:          userID,
			CustomerName:    req.CustomerName,
			TotalAmount:     total,
			Status:          StatusPending,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
		})
		if err != nil {
			return err
		}

		items := make([]Item, 0, len(ids))
		for _, id := range ids {
			qty := requested[id]
			if _, err := ledger.Apply(ctx, tx.Ledger(), id, -qty, ledger.MovementTypeOut); err != nil {
				return err
			}
			item := Item{
				OrderID:   orderID,
				ProductID: id,
				Quantity:  qty,
				Price:     priced[id].Price,
			}
			itemID, err := tx.InsertItem(ctx, item)
			if err != nil {
				return err
			}
			item.ID = itemID
			items = append(items, item)
		}

		got, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		got.Items = items
		order = got
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return nil, err
	}
	s.invalidateAll(ctx, ids)
	return order, nil
}

// CancelOrder transitions an order to CANCELLED and restores each product's
// stock with one IN movement per original item, atomically. Legal only from
// PENDING or SHIPPED.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	var order *Order
	var touched []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		got, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !got.Status.CanTransition(StatusCancelled) {
			return fmt.Errorf("%w: cannot cancel a %s order", shared.ErrInvalidState, got.Status)
		}

		items := append([]Item(nil), got.Items...)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		for _, item := range items {
			if _, err := ledger.Apply(ctx, tx.Ledger(), item.ProductID, item.Quantity, ledger.MovementTypeIn); err != nil {
				return err
			}
			touched = append(touched, item.ProductID)
		}
		if err := tx.UpdateStatus(ctx, orderID, StatusCancelled); err != nil {
			return err
		}
		got.Status = StatusCancelled
		order = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAll(ctx, touched)
	return order, nil
}

// Ship transitions PENDING -> SHIPPED.
func (s *Service) Ship(ctx context.Context, orderID int64) (*Order, error) {
	return s.transition(ctx, orderID, StatusShipped)
}

// Deliver transitions SHIPPED -> DELIVERED.
func (s *Service) Deliver(ctx context.Context, orderID int64) (*Order, error) {
	return s.transition(ctx, orderID, StatusDelivered)
}

func (s *Service) transition(ctx context.Context, orderID int64, next Status) (*Order, error) {
	var order *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		got, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !got.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidState, got.Status, next)
		}
		if err := tx.UpdateStatus(ctx, orderID, next); err != nil {
			return err
		}
		got.Status = next
		order = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) invalidateAll(ctx context.Context, productIDs []int64) {
	if s.cache == nil {
		return
	}
	for _, id := range productIDs {
		_ = s.cache.Invalidate(ctx, id)
	}
}
