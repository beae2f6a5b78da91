package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-ims/atlas-ims/internal/platform/db"
	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// DBTX is the subset of pgx operations the repository needs; both
// *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxRepository exposes the operations that must run inside one atomic unit:
// the product row lock, the movement append and the quantity write.
type TxRepository interface {
	GetProductQuantityForUpdate(ctx context.Context, productID int64) (int64, error)
	InsertMovement(ctx context.Context, productID, delta int64, typ MovementType) (Movement, error)
	UpdateProductQuantity(ctx context.Context, productID, quantity int64) error
}

// Repository persists the movement log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NewTxRepository wraps an in-flight transaction so other modules (order
// placement) can apply movements inside their own atomic unit.
func NewTxRepository(q DBTX) TxRepository {
	return &txRepo{q: q}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

// ListByProduct returns all movements for a product by creation order.
func (r *Repository) ListByProduct(ctx context.Context, filter ListFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, quantity_changed, type, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, filter.ProductID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.QuantityChanged, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// Get returns a single movement.
func (r *Repository) Get(ctx context.Context, id int64) (Movement, error) {
	var m Movement
	err := r.pool.QueryRow(ctx, `
		SELECT id, product_id, quantity_changed, type, created_at
		FROM stock_movements WHERE id = $1
	`, id).Scan(&m.ID, &m.ProductID, &m.QuantityChanged, &m.Type, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, fmt.Errorf("%w: stock movement %d", shared.ErrNotFound, id)
		}
		return Movement{}, err
	}
	return m, nil
}

// SumMovements folds the full movement history of a product. The caller is
// expected to have checked the product exists.
func (r *Repository) SumMovements(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_changed), 0) FROM stock_movements WHERE product_id = $1
	`, productID).Scan(&sum)
	return sum, err
}

// GetProductQuantity reads the stored on-hand quantity.
func (r *Repository) GetProductQuantity(ctx context.Context, productID int64) (int64, error) {
	var qty int64
	err := r.pool.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return 0, err
	}
	return qty, nil
}

// ListProductIDs returns every product id, used by the ledger audit.
func (r *Repository) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type txRepo struct {
	q DBTX
}

func (t *txRepo) GetProductQuantityForUpdate(ctx context.Context, productID int64) (int64, error) {
	var qty int64
	err := t.q.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return 0, err
	}
	return qty, nil
}

func (t *txRepo) InsertMovement(ctx context.Context, productID, delta int64, typ MovementType) (Movement, error) {
	var m Movement
	err := t.q.QueryRow(ctx, `
		INSERT INTO stock_movements (product_id, quantity_changed, type)
		VALUES ($1, $2, $3)
		RETURNING id, product_id, quantity_changed, type, created_at
	`, productID, delta, typ).Scan(&m.ID, &m.ProductID, &m.QuantityChanged, &m.Type, &m.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Movement{}, fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
		}
		return Movement{}, err
	}
	return m, nil
}

func (t *txRepo) UpdateProductQuantity(ctx context.Context, productID, quantity int64) error {
	tag, err := t.q.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = now() WHERE id = $2`, quantity, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", shared.ErrNotFound, productID)
	}
	return nil
}
