package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// memoryStore backs both the order repository and the ledger tx surface.
// WithTx snapshots all state up front and restores it when fn fails, so a
// failing placement rolls back every staged write like the real thing.
type memoryStore struct {
	mu         sync.Mutex
	products   map[int64]ProductRef
	orders     map[int64]*Order
	movements  []ledger.Movement
	nextOrder  int64
	nextItem   int64
	nextMove   int64
}

func newMemoryStore(products map[int64]ProductRef) *memoryStore {
	p := make(map[int64]ProductRef, len(products))
	for id, ref := range products {
		ref.ID = id
		p[id] = ref
	}
	return &memoryStore{products: p, orders: make(map[int64]*Order)}
}

type storeSnapshot struct {
	products  map[int64]ProductRef
	orders    map[int64]*Order
	movements []ledger.Movement
	nextOrder int64
	nextItem  int64
	nextMove  int64
}

func (s *memoryStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		products:  make(map[int64]ProductRef, len(s.products)),
		orders:    make(map[int64]*Order, len(s.orders)),
		movements: append([]ledger.Movement(nil), s.movements...),
		nextOrder: s.nextOrder,
		nextItem:  s.nextItem,
		nextMove:  s.nextMove,
	}
	for id, ref := range s.products {
		snap.products[id] = ref
	}
	for id, o := range s.orders {
		cp := *o
		cp.Items = append([]Item(nil), o.Items...)
		snap.orders[id] = &cp
	}
	return snap
}

func (s *memoryStore) restore(snap storeSnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.movements = snap.movements
	s.nextOrder = snap.nextOrder
	s.nextItem = snap.nextItem
	s.nextMove = snap.nextMove
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, &memoryOrderTx{store: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id int64) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrder(id)
}

func (s *memoryStore) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if filter.UserID > 0 && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *memoryStore) getOrder(id int64) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return &cp, nil
}

func (s *memoryStore) productMovements(productID int64) []ledger.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Movement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

func (s *memoryStore) quantity(t *testing.T, productID int64) int64 {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.products[productID]
	require.True(t, ok)
	return ref.Quantity
}

type memoryOrderTx struct {
	store *memoryStore
}

func (tx *memoryOrderTx) Ledger() ledger.TxRepository {
	return &memoryLedgerTx{store: tx.store}
}

func (tx *memoryOrderTx) LockProducts(ctx context.Context, ids []int64) ([]ProductRef, error) {
	var refs []ProductRef
	for _, id := range ids {
		if ref, ok := tx.store.products[id]; ok {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (tx *memoryOrderTx) CreateOrder(ctx context.Context, order Order) (int64, error) {
	tx.store.nextOrder++
	order.ID = tx.store.nextOrder
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	tx.store.orders[order.ID] = &order
	return order.ID, nil
}

func (tx *memoryOrderTx) InsertItem(ctx context.Context, item Item) (int64, error) {
	o, ok := tx.store.orders[item.OrderID]
	if !ok {
		return 0, fmt.Errorf("%w: order %d", shared.ErrNotFound, item.OrderID)
	}
	tx.store.nextItem++
	item.ID = tx.store.nextItem
	o.Items = append(o.Items, item)
	return item.ID, nil
}

func (tx *memoryOrderTx) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	return tx.store.getOrder(id)
}

func (tx *memoryOrderTx) UpdateStatus(ctx context.Context, id int64, status Status) error {
	o, ok := tx.store.orders[id]
	if !ok {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryLedgerTx struct {
	store *memoryStore
}

func (tx *memoryLedgerTx) GetProductQuantityForUpdate(ctx context.Context, productID int64) (int64, error) {
	ref, ok := tx.store.products[productID]
	if !ok {
		return 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return ref.Quantity, nil
}

func (tx *memoryLedgerTx) InsertMovement(ctx context.Context, productID, delta int64, typ ledger.MovementType) (ledger.Movement, error) {
	tx.store.nextMove++
	m := ledger.Movement{
		ID:              tx.store.nextMove,
		ProductID:       productID,
		QuantityChanged: delta,
		Type:            typ,
		CreatedAt:       time.Now().UTC(),
	}
	tx.store.movements = append(tx.store.movements, m)
	return m, nil
}

func (tx *memoryLedgerTx) UpdateProductQuantity(ctx context.Context, productID, quantity int64) error {
	ref, ok := tx.store.products[productID]
	if !ok {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	ref.Quantity = quantity
	tx.store.products[productID] = ref
	return nil
}

func TestPlaceOrderDebitsStock(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{
		1: {Price: 25.0, Quantity: 10},
	})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 7, PlaceOrderRequest{
		CustomerName:    "Ada",
		ShippingAddress: "1 Main St",
		Items:           []PlaceItemReq{{ProductID: 1, Quantity: 4}},
	}, "")
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, int64(7), order.UserID)
	require.InDelta(t, 100.0, order.TotalAmount, 0.001)
	require.Len(t, order.Items, 1)
	require.Equal(t, int64(4), order.Items[0].Quantity)
	require.InDelta(t, 25.0, order.Items[0].Price, 0.001)

	require.Equal(t, int64(6), store.quantity(t, 1))
	movements := store.productMovements(1)
	require.Len(t, movements, 1)
	require.Equal(t, ledger.MovementTypeOut, movements[0].Type)
	require.Equal(t, int64(-4), movements[0].QuantityChanged)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{
		1: {Price: 25.0, Quantity: 2},
	})
	svc := NewService(store, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items:        []PlaceItemReq{{ProductID: 1, Quantity: 5}},
	}, "")
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Equal(t, int64(2), store.quantity(t, 1))
	require.Empty(t, store.productMovements(1))
	require.Empty(t, store.orders)
}

func TestPlaceOrderUnknownProductRollsBack(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{
		1: {Price: 10.0, Quantity: 10},
	})
	svc := NewService(store, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items: []PlaceItemReq{
			{ProductID: 1, Quantity: 3},
			{ProductID: 99, Quantity: 1},
		},
	}, "")
	require.ErrorIs(t, err, shared.ErrNotFound)

	// the known product must not have been debited
	require.Equal(t, int64(10), store.quantity(t, 1))
	require.Empty(t, store.productMovements(1))
	require.Empty(t, store.orders)
}

func TestPlaceOrderPartialFailureRollsBack(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{
		1: {Price: 10.0, Quantity: 10},
		2: {Price: 5.0, Quantity: 1},
	})
	svc := NewService(store, nil, nil)

	_, err := svc.PlaceOrder(context.Background(), 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items: []PlaceItemReq{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 4},
		},
	}, "")
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	require.Equal(t, int64(10), store.quantity(t, 1))
	require.Equal(t, int64(1), store.quantity(t, 2))
	require.Empty(t, store.movements)
}

func TestPlaceOrderValidation(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{1: {Price: 1, Quantity: 10}})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, 1, PlaceOrderRequest{CustomerName: "Ada"}, "")
	require.ErrorIs(t, err, shared.ErrInvalidRequest)

	_, err = svc.PlaceOrder(ctx, 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items: []PlaceItemReq{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
	}, "")
	require.ErrorIs(t, err, shared.ErrInvalidRequest)

	_, err = svc.PlaceOrder(ctx, 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items:        []PlaceItemReq{{ProductID: 1, Quantity: 0}},
	}, "")
	require.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestCancelRestoresStock(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{
		1: {Price: 20.0, Quantity: 8},
		2: {Price: 5.0, Quantity: 4},
	})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items: []PlaceItemReq{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 2},
		},
	}, "")
	require.NoError(t, err)
	require.Equal(t, int64(5), store.quantity(t, 1))
	require.Equal(t, int64(2), store.quantity(t, 2))

	cancelled, err := svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, int64(8), store.quantity(t, 1))
	require.Equal(t, int64(4), store.quantity(t, 2))

	// one OUT plus one compensating IN per product
	movements := store.productMovements(1)
	require.Len(t, movements, 2)
	require.Equal(t, ledger.MovementTypeOut, movements[0].Type)
	require.Equal(t, ledger.MovementTypeIn, movements[1].Type)
	require.Equal(t, int64(3), movements[1].QuantityChanged)

	// cancelling twice is refused
	_, err = svc.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	require.Equal(t, int64(8), store.quantity(t, 1))
}

func TestStatusTransitions(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{1: {Price: 1, Quantity: 10}})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items:        []PlaceItemReq{{ProductID: 1, Quantity: 1}},
	}, "")
	require.NoError(t, err)

	// skipping SHIPPED is not allowed
	_, err = svc.Deliver(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	shipped, err := svc.Ship(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusShipped, shipped.Status)

	delivered, err := svc.Deliver(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)

	// terminal states accept nothing
	_, err = svc.Ship(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.CancelOrder(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCancelShippedRestoresStock(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{1: {Price: 1, Quantity: 5}})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, 1, PlaceOrderRequest{
		CustomerName: "Ada",
		Items:        []PlaceItemReq{{ProductID: 1, Quantity: 5}},
	}, "")
	require.NoError(t, err)

	_, err = svc.Ship(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), store.quantity(t, 1))
}

func TestConcurrentPlacementLastUnit(t *testing.T) {
	store := newMemoryStore(map[int64]ProductRef{1: {Price: 9.99, Quantity: 1}})
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PlaceOrder(ctx, int64(i+1), PlaceOrderRequest{
				CustomerName: "Racer",
				Items:        []PlaceItemReq{{ProductID: 1, Quantity: 1}},
			}, "")
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, shared.ErrInsufficientStock)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, int64(0), store.quantity(t, 1))
	require.Len(t, store.productMovements(1), 1)
}
