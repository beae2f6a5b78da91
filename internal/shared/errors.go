package shared

import "errors"

// Closed error taxonomy for the domain layer. Services return these (wrapped
// with context via fmt.Errorf and %w); the HTTP layer maps them to status
// codes and nothing else crosses that boundary.
var (
	// ErrInvalidRequest indicates malformed or missing input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a debit would drive stock below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState indicates an illegal state transition.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrDuplicate indicates a unique constraint or idempotency-key replay.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConflict indicates transient contention; callers may retry.
	ErrConflict = errors.New("transient conflict")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
