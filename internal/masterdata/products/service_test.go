package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/masterdata/shared"
	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

type memoryRepo struct {
	products  map[int64]Product
	movements map[int64]bool
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product), movements: make(map[int64]bool)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product) (Product, error) {
	r.nextID++
	p.ID = r.nextID
	p.Quantity = 0
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, p Product) (Product, error) {
	existing, ok := r.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
	}
	existing.Name = p.Name
	existing.SKU = p.SKU
	existing.Price = p.Price
	existing.CategoryID = p.CategoryID
	existing.SupplierID = p.SupplierID
	r.products[id] = existing
	return existing, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
	}
	delete(r.products, id)
	return nil
}

func (r *memoryRepo) HasMovements(ctx context.Context, id int64) (bool, error) {
	return r.movements[id], nil
}

func validProduct() Product {
	return Product{Name: "Laptop", SKU: "SKU-1", Price: 899, CategoryID: 1, SupplierID: 1}
}

func TestCreateStartsAtZeroQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	p := validProduct()
	p.Quantity = 50 // must be ignored
	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, int64(0), created.Quantity)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*Product)
	}{
		{"empty name", func(p *Product) { p.Name = "  " }},
		{"empty sku", func(p *Product) { p.SKU = "" }},
		{"negative price", func(p *Product) { p.Price = -1 }},
		{"missing category", func(p *Product) { p.CategoryID = 0 }},
		{"missing supplier", func(p *Product) { p.SupplierID = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProduct()
			tc.mutate(&p)
			_, err := svc.Create(ctx, p)
			require.ErrorIs(t, err, internalShared.ErrInvalidRequest)
		})
	}
}

func TestDeleteRefusedWithHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	repo.movements[created.ID] = true

	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, internalShared.ErrInvalidState)
	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
}

func TestDeleteWithoutHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestGetServesQuantityFromCache(t *testing.T) {
	repo := newMemoryRepo()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(repo, ledger.NewQuantityCache(client, time.Minute))
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Quantity)

	// a stale cache entry wins over the stored row until invalidated
	require.NoError(t, mr.Set(fmt.Sprintf("ledger:product:%d:quantity", created.ID), "12"))
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(12), got.Quantity)
}
