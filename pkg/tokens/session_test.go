package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignSession_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	exp := time.Now().Add(time.Hour).UTC()

	token, err := SignSession(7, "olena", "admin", exp, secret)
	require.NoError(t, err)

	claims, err := SessionClaimsFromToken(token, secret)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "olena", claims.Nickname)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestSessionClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")

	expired, err := SignSession(1, "taras", "user", time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)
	_, err = SessionClaimsFromToken(expired, secret)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := SignSession(1, "taras", "user", time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	_, err = SessionClaimsFromToken(valid, []byte("other-secret"))
	assert.Error(t, err)

	_, err = SessionClaimsFromToken("not-a-jwt", secret)
	assert.Error(t, err)
}
