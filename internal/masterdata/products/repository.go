package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-ims/atlas-ims/internal/masterdata/shared"
	"github.com/atlas-ims/atlas-ims/internal/platform/db"
	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, sku, price, quantity, category_id, supplier_id, created_at, updated_at`

// List returns products matching the filters plus a total count.
func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}
	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argPos))
		args = append(args, *filters.CategoryID)
		argPos++
	}
	if filters.SupplierID != nil {
		conditions = append(conditions, fmt.Sprintf("supplier_id = $%d", argPos))
		args = append(args, *filters.SupplierID)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY id LIMIT $%d OFFSET $%d",
		productColumns, whereClause, argPos, argPos+1)
	args = append(args, filters.PageSize(), filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

// Get returns one product.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
		}
		return Product{}, err
	}
	return p, nil
}

// Create inserts a product with quantity zero.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	created, err := scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (name, sku, price, quantity, category_id, supplier_id)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING `+productColumns, p.Name, p.SKU, p.Price, p.CategoryID, p.SupplierID))
	if err != nil {
		return Product{}, mapWriteError(err, p)
	}
	return created, nil
}

// Update mutates name, sku, price and references. Quantity is deliberately
// absent from the statement.
func (r *Repository) Update(ctx context.Context, id int64, p Product) (Product, error) {
	updated, err := scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $1, sku = $2, price = $3, category_id = $4, supplier_id = $5, updated_at = now()
		WHERE id = $6
		RETURNING `+productColumns, p.Name, p.SKU, p.Price, p.CategoryID, p.SupplierID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
		}
		return Product{}, mapWriteError(err, p)
	}
	return updated, nil
}

// Delete removes a product that has no movement history.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: product %d has stock or order history", internalShared.ErrInvalidState, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", internalShared.ErrNotFound, id)
	}
	return nil
}

// HasMovements reports whether the product has ledger history.
func (r *Repository) HasMovements(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stock_movements WHERE product_id = $1)`, id).Scan(&exists)
	return exists, err
}

func mapWriteError(err error, p Product) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: sku %s already in use", internalShared.ErrDuplicate, p.SKU)
	}
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: category or supplier does not exist", internalShared.ErrNotFound)
	}
	return err
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Quantity, &p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
