package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T, opts ...TokensOption) *Tokens {
	t.Helper()
	tk, err := NewTokens("access-secret", "refresh-secret", opts...)
	require.NoError(t, err)
	return tk
}

func TestNewTokensRequiresSecrets(t *testing.T) {
	_, err := NewTokens("", "refresh")
	assert.Error(t, err)
	_, err = NewTokens("access", "   ")
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tk := newTestTokens(t)
	u := &User{ID: "user-1", Email: "ada@example.com", Username: "ada"}

	token, exp, err := tk.IssueAccess(u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := tk.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "ada", claims.Username)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
}

func TestRefreshTokenCarriesSubjectOnly(t *testing.T) {
	tk := newTestTokens(t)

	token, _, err := tk.IssueRefresh("user-2")
	require.NoError(t, err)

	claims, err := tk.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Username)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tk := newTestTokens(t)
	other, err := NewTokens("other-access", "other-refresh")
	require.NoError(t, err)

	token, _, err := tk.IssueAccess(&User{ID: "user-1"})
	require.NoError(t, err)

	_, err = other.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsCrossedTokenTypes(t *testing.T) {
	tk := newTestTokens(t)

	access, _, err := tk.IssueAccess(&User{ID: "user-1"})
	require.NoError(t, err)
	refresh, _, err := tk.IssueRefresh("user-1")
	require.NoError(t, err)

	_, err = tk.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = tk.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	tk := newTestTokens(t, WithAccessTTL(time.Minute), WithClock(func() time.Time { return clock }))

	token, _, err := tk.IssueAccess(&User{ID: "user-1"})
	require.NoError(t, err)

	clock = issued.Add(30 * time.Second)
	_, err = tk.VerifyAccess(token)
	assert.NoError(t, err)

	clock = issued.Add(2 * time.Minute)
	_, err = tk.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tk := newTestTokens(t)
	for _, token := range []string{"", "   ", "not.a.jwt", "a.b"} {
		_, err := tk.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrUnauthorized, "token %q", token)
	}
}
