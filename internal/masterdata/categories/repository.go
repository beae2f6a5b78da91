package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-ims/atlas-ims/internal/platform/db"
	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

// Repository provides PostgreSQL backed persistence for categories.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all categories.
func (r *Repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Get returns one category.
func (r *Repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("%w: category %d", internalShared.ErrNotFound, id)
		}
		return Category{}, err
	}
	return c, nil
}

// Create inserts a category.
func (r *Repository) Create(ctx context.Context, name string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Category{}, fmt.Errorf("%w: category %s already exists", internalShared.ErrDuplicate, name)
		}
		return Category{}, err
	}
	return c, nil
}

// Update renames a category.
func (r *Repository) Update(ctx context.Context, id int64, name string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		UPDATE categories SET name = $1, updated_at = now() WHERE id = $2
		RETURNING id, name, created_at, updated_at
	`, name, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, fmt.Errorf("%w: category %d", internalShared.ErrNotFound, id)
		}
		if db.IsUniqueViolation(err) {
			return Category{}, fmt.Errorf("%w: category %s already exists", internalShared.ErrDuplicate, name)
		}
		return Category{}, err
	}
	return c, nil
}

// Delete removes a category with no products.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d still has products", internalShared.ErrInvalidState, id)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", internalShared.ErrNotFound, id)
	}
	return nil
}
