package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"exp":     expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	assert.NoError(t, err)
	return signed
}

func TestExpiry(t *testing.T) {
	t.Run("reads exp from a JWT", func(t *testing.T) {
		expiresAt := time.Now().Add(24 * time.Hour).Truncate(time.Second)
		exp, ok := Expiry(mintToken(t, expiresAt))
		assert.True(t, ok)
		assert.Equal(t, expiresAt.Unix(), exp.Unix())
	})

	t.Run("opaque tokens are not an error", func(t *testing.T) {
		_, ok := Expiry("abc")
		assert.False(t, ok)
	})

	t.Run("JWT without exp claim", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
		signed, err := token.SignedString([]byte("test-secret"))
		assert.NoError(t, err)

		_, ok := Expiry(signed)
		assert.False(t, ok)
	})
}
