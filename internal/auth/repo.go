package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-ims/atlas-ims/internal/platform/db"
	"github.com/atlas-ims/atlas-ims/internal/shared"
)

// Repository loads and creates credential accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail returns the account for an email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, password, first_name, last_name, is_admin, created_at
		FROM users WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.IsAdmin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: no account for %s", shared.ErrNotFound, email)
		}
		return Account{}, err
	}
	return a, nil
}

// Create inserts a new account. A duplicate email fails with ErrDuplicate.
func (r *Repository) Create(ctx context.Context, a Account) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password, first_name, last_name, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.IsAdmin).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: email %s already registered", shared.ErrDuplicate, a.Email)
		}
		return 0, err
	}
	return id, nil
}
