package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/atlas-ims/atlas-ims/internal/ledger"
	"github.com/atlas-ims/atlas-ims/internal/shared"
)

type txRepository struct {
	tx     pgx.Tx
	ledger ledger.TxRepository
}

func (t *txRepository) Ledger() ledger.TxRepository {
	return t.ledger
}

// LockProducts reads the referenced product rows FOR UPDATE. The ORDER BY id
// makes Postgres acquire the row locks in ascending id order, which is the
// fixed global lock order that keeps concurrent multi-item orders from
// deadlocking.
func (t *txRepository) LockProducts(ctx context.Context, ids []int64) ([]ProductRef, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, price, quantity FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ProductRef
	for rows.Next() {
		var ref ProductRef
		if err := rows.Scan(&ref.ID, &ref.Price, &ref.Quantity); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (t *txRepository) CreateOrder(ctx context.Context, order Order) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, customer_name, total_amount, status, shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, order.UserID, order.CustomerName, order.TotalAmount, order.Status,
		order.ShippingAddress, order.BillingAddress).Scan(&id)
	return id, err
}

func (t *txRepository) InsertItem(ctx context.Context, item Item) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&id)
	return id, err
}

func (t *txRepository) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	order, err := scanOrder(t.tx.QueryRow(ctx, `
		SELECT id, user_id, customer_name, total_amount, status,
		       shipping_address, billing_address, created_at, updated_at
		FROM orders WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
		}
		return nil, err
	}
	items, err := loadItems(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (t *txRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", shared.ErrNotFound, id)
	}
	return nil
}
