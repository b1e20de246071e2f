package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT() *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT()

	token, exp, err := m.GenerateAccessToken("u1", "alice@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	m := newTestJWT()

	refresh, _, err := m.GenerateRefreshToken("u1", "alice@example.com")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)

	claims, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewJWTManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	token, _, err := m.GenerateAccessToken("u1", "alice@example.com")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	m := newTestJWT()

	token, _, err := m.GenerateAccessToken("u1", "alice@example.com")
	require.NoError(t, err)

	other := NewJWTManager("different-secret", "refresh-secret", time.Hour, 24*time.Hour)
	_, err = other.ParseAccessToken(token)
	assert.Error(t, err)
}
