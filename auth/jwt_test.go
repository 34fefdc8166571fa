package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders-rh/boat-fuel-tracker/auth"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

var secret = []byte("test-signing-secret")

func TestTokenIssuer_RoundTrip(t *testing.T) {
	// GIVEN: A signed token for a regular user
	// WHEN: Verifying it
	// THEN: The identity carries the user id and the user role only

	issuer := auth.NewTokenIssuer(secret, time.Hour)

	token, err := issuer.Issue(fuelup.User{ID: "alice", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.UserID)
	assert.True(t, identity.HasRole("user"))
	assert.False(t, identity.HasRole(fuelup.RoleAdmin))
}

func TestTokenIssuer_AdminRole(t *testing.T) {
	issuer := auth.NewTokenIssuer(secret, time.Hour)

	token, err := issuer.Issue(fuelup.User{ID: "root", Admin: true})
	require.NoError(t, err)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, identity.HasRole(fuelup.RoleAdmin))
}

func TestTokenIssuer_WrongSecretRejected(t *testing.T) {
	issuer := auth.NewTokenIssuer(secret, time.Hour)
	other := auth.NewTokenIssuer([]byte("some-other-secret"), time.Hour)

	token, err := issuer.Issue(fuelup.User{ID: "alice"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_ExpiredRejected(t *testing.T) {
	issuer := auth.NewTokenIssuer(secret, -time.Minute)

	token, err := issuer.Issue(fuelup.User{ID: "alice"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_GarbageRejected(t *testing.T) {
	issuer := auth.NewTokenIssuer(secret, time.Hour)

	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestBcryptHasher(t *testing.T) {
	hasher := auth.BcryptHasher{}

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
	assert.Error(t, hasher.Compare(hash, "wrong password"))
}
