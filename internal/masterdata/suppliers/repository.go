package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-ims/atlas-ims/internal/platform/db"
	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

// Repository provides PostgreSQL backed persistence for suppliers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const supplierColumns = `id, name, email, phone, address, created_at, updated_at`

// List returns all suppliers.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Get returns one supplier.
func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("%w: supplier %d", internalShared.ErrNotFound, id)
		}
		return Supplier{}, err
	}
	return s, nil
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	created, err := scanSupplier(r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING `+supplierColumns, s.Name, s.Email, s.Phone, s.Address))
	if err != nil {
		return Supplier{}, err
	}
	return created, nil
}

// Update mutates supplier fields.
func (r *Repository) Update(ctx context.Context, id int64, s Supplier) (Supplier, error) {
	updated, err := scanSupplier(r.pool.QueryRow(ctx, `
		UPDATE suppliers SET name = $1, email = $2, phone = $3, address = $4, updated_at = now()
		WHERE id = $5
		RETURNING `+supplierColumns, s.Name, s.Email, s.Phone, s.Address, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("%w: supplier %d", internalShared.ErrNotFound, id)
		}
		return Supplier{}, err
	}
	return updated, nil
}

// Delete removes a supplier with no products.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: supplier %d still has products", internalShared.ErrInvalidState, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: supplier %d", internalShared.ErrNotFound, id)
	}
	return nil
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
