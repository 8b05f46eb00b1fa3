package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-0123456789"

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(secret, "fusaf", time.Hour)
	require.NoError(t, err)
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newManager(t)
	tok, exp, err := m.Issue("ops@fusaf.org.ua", RoleAdmin, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "ops@fusaf.org.ua", claims.Subject)
}

func TestIssue_UnknownRole(t *testing.T) {
	_, _, err := newManager(t).Issue("x", "superuser", 0)
	assert.Error(t, err)
}

func TestParse_Rejects(t *testing.T) {
	m := newManager(t)
	tok, _, err := m.Issue("coach-1", RoleCoach, time.Minute)
	require.NoError(t, err)

	other, err := NewManager("another-secret-abcdef", "fusaf", time.Hour)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrUnauthorized, "wrong secret")

	wrongIssuer, err := NewManager(secret, "someone-else", time.Hour)
	require.NoError(t, err)
	_, err = wrongIssuer.Parse(tok)
	assert.ErrorIs(t, err, ErrUnauthorized, "wrong issuer")

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Parse(tok)
	assert.ErrorIs(t, err, ErrUnauthorized, "expired")

	_, err = newManager(t).Parse("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Issuer: "fusaf", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newManager(t).Parse(tok)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewManager_ShortSecret(t *testing.T) {
	_, err := NewManager("short", "fusaf", time.Hour)
	assert.Error(t, err)
}
