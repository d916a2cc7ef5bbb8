package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService(t *testing.T) {
	svc := NewJWTService("test-secret", "15m", "24h")

	t.Run("access token claims", func(t *testing.T) {
		token, expiresAt, err := svc.GenerateAccessToken("u-1", "ana@example.com", user.RoleHR)
		require.NoError(t, err)
		assert.InDelta(t, time.Now().Add(15*time.Minute).Unix(), expiresAt, 5)

		decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
		require.NoError(t, err)
		claims, err := decoded.AsMap(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims["user_id"])
		assert.Equal(t, "hr", claims["role"])
		assert.Equal(t, "access", claims["type"])
	})

	t.Run("refresh tokens are unique", func(t *testing.T) {
		a, _, err := svc.GenerateRefreshToken("u-1")
		require.NoError(t, err)
		b, _, err := svc.GenerateRefreshToken("u-1")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("sse token round trip", func(t *testing.T) {
		token, expiresIn, err := svc.GenerateSSEToken("u-2", user.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, 300, expiresIn)

		userID, role, err := svc.ValidateSSEToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u-2", userID)
		assert.Equal(t, user.RoleAdmin, role)
	})

	t.Run("access token is not an sse token", func(t *testing.T) {
		token, _, err := svc.GenerateAccessToken("u-1", "ana@example.com", user.RoleAdmin)
		require.NoError(t, err)
		_, _, err = svc.ValidateSSEToken(token)
		assert.Error(t, err)
	})

	t.Run("foreign signature rejected", func(t *testing.T) {
		other := NewJWTService("other-secret", "15m", "24h")
		token, _, err := other.GenerateSSEToken("u-2", user.RoleAdmin)
		require.NoError(t, err)
		_, _, err = svc.ValidateSSEToken(token)
		assert.Error(t, err)
	})

	t.Run("revocation", func(t *testing.T) {
		assert.False(t, svc.IsTokenRevoked("abc"))
		svc.RevokeToken("abc")
		assert.True(t, svc.IsTokenRevoked("abc"))
	})

	t.Run("cookies", func(t *testing.T) {
		c := svc.RefreshTokenCookie("tok", time.Now().Add(time.Hour).Unix())
		assert.Equal(t, "refresh_token", c.Name)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, -1, svc.ClearRefreshTokenCookie().MaxAge)
	})
}
