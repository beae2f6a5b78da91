package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/atlas-ims/atlas-ims/internal/shared"
)

const minPasswordLength = 8

// RepositoryPort abstracts account storage for the service.
type RepositoryPort interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, a Account) (int64, error)
}

// Service implements signup and login.
type Service struct {
	repo   RepositoryPort
	issuer *TokenIssuer
}

// NewService builds Service.
func NewService(repo RepositoryPort, issuer *TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// SignupInput carries registration data.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session is a successful authentication result.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Principal shared.Principal `json:"-"`
}

// Signup registers a new non-admin account and returns a session.
func (s *Service) Signup(ctx context.Context, input SignupInput) (Session, error) {
	if input.Email == "" {
		return Session{}, fmt.Errorf("%w: email required", shared.ErrInvalidRequest)
	}
	if len(input.Password) < minPasswordLength {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidRequest, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, err
	}
	id, err := s.repo.Create(ctx, Account{
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.session(shared.Principal{UserID: id, Email: input.Email})
}

// Login verifies credentials and returns a session. A missing account and a
// wrong password both surface as unauthorized so the response does not leak
// which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return Session{}, fmt.Errorf("%w: invalid credentials", shared.ErrUnauthorized)
	}
	return s.session(shared.Principal{UserID: account.ID, Email: account.Email, IsAdmin: account.IsAdmin})
}

func (s *Service) session(p shared.Principal) (Session, error) {
	token, expiresAt, err := s.issuer.Generate(p)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, Principal: p}, nil
}
