package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-ims/atlas-ims/internal/shared"
)

type memoryAccounts struct {
	byEmail map[string]Account
	nextID  int64
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byEmail: make(map[string]Account)}
}

func (r *memoryAccounts) GetByEmail(ctx context.Context, email string) (Account, error) {
	if a, ok := r.byEmail[email]; ok {
		return a, nil
	}
	return Account{}, fmt.Errorf("%w: account %s", shared.ErrNotFound, email)
}

func (r *memoryAccounts) Create(ctx context.Context, a Account) (int64, error) {
	if _, ok := r.byEmail[a.Email]; ok {
		return 0, fmt.Errorf("%w: email already registered", shared.ErrDuplicate)
	}
	r.nextID++
	a.ID = r.nextID
	r.byEmail[a.Email] = a
	return a.ID, nil
}

func newTestService() (*Service, *memoryAccounts) {
	repo := newMemoryAccounts()
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour)), repo
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupInput{
		Email:     "ada@atlas.local",
		Password:  "correct-horse",
		FirstName: "Ada",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.False(t, session.Principal.IsAdmin)

	session, err = svc.Login(ctx, "ada@atlas.local", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, "ada@atlas.local", session.Principal.Email)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Password: "long-enough-pw"})
	require.ErrorIs(t, err, shared.ErrInvalidRequest)

	_, err = svc.Signup(ctx, SignupInput{Email: "a@atlas.local", Password: "short"})
	require.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Email: "ada@atlas.local", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, SignupInput{Email: "ada@atlas.local", Password: "correct-horse"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Email: "ada@atlas.local", Password: "correct-horse"})
	require.NoError(t, err)

	// wrong password and unknown email look identical to the caller
	_, wrongPass := svc.Login(ctx, "ada@atlas.local", "wrong")
	_, unknown := svc.Login(ctx, "ghost@atlas.local", "whatever")
	require.ErrorIs(t, wrongPass, shared.ErrUnauthorized)
	require.ErrorIs(t, unknown, shared.ErrUnauthorized)
	require.Equal(t, wrongPass.Error(), unknown.Error())
}
