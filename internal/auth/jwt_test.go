// File: internal/auth/jwt_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key")

func TestJWTRoundTrip(t *testing.T) {
	t.Run("valid token carries the identity", func(t *testing.T) {
		token, err := GenerateJWT(42, "gm", testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, uint(42), claims.UserID)
		assert.Equal(t, "gm", claims.Username)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		token, err := GenerateJWT(42, "gm", testSecret)
		require.NoError(t, err)

		_, err = ValidateToken(token, []byte("other-key"))
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ValidateToken("not-a-token", testSecret)
		assert.Error(t, err)
	})

	t.Run("rejects an incomplete identity", func(t *testing.T) {
		_, err := GenerateJWT(0, "gm", testSecret)
		assert.Error(t, err)
		_, err = GenerateJWT(42, "", testSecret)
		assert.Error(t, err)
	})
}
