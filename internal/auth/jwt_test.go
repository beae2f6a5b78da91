package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atlas-ims/atlas-ims/internal/shared"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, expiresAt, err := issuer.Generate(shared.Principal{UserID: 42, Email: "ada@atlas.local", IsAdmin: true})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	principal, err := issuer.Validate(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), principal.UserID)
	require.Equal(t, "ada@atlas.local", principal.Email)
	require.True(t, principal.IsAdmin)
}

func TestTokensCarryUniqueID(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	p := shared.Principal{UserID: 7, Email: "a@atlas.local"}

	first, _, err := issuer.Generate(p)
	require.NoError(t, err)
	second, _, err := issuer.Generate(p)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := issuer.Generate(shared.Principal{UserID: 1, Email: "a@atlas.local"})
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, _, err := issuer.Generate(shared.Principal{UserID: 1, Email: "a@atlas.local"})
	require.NoError(t, err)

	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestValidateRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Validate("not-a-token")
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
