package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough"

func parseClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)
	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestNewAccessToken(t *testing.T) {
	access, err := NewAccessToken(testSecret, 42, "ana@example.com", "admin", 7)
	require.NoError(t, err)
	require.NotEmpty(t, access.Token)

	claims := parseClaims(t, access.Token, testSecret)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "ana@example.com", claims["username"])
	assert.Equal(t, "admin", claims["role"])

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	assert.Equal(t, int64(7*24*time.Hour/time.Second), exp-iat,
		"expiry must be exactly 7 days after issuance")
	assert.Equal(t, access.Exp.Unix(), exp)
}

func TestNewAccessTokenSingleRoleClaim(t *testing.T) {
	access, err := NewAccessToken(testSecret, 7, "bob", "registrado", 7)
	require.NoError(t, err)

	claims := parseClaims(t, access.Token, testSecret)
	role, ok := claims["role"].(string)
	require.True(t, ok, "role claim must be a single string, not a list")
	assert.Equal(t, "registrado", role)
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
	access, err := NewAccessToken(testSecret, 1, "eve", "registrado", 7)
	require.NoError(t, err)

	_, err = jwt.Parse(access.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("a-different-secret"), nil
	})
	assert.Error(t, err)
}

func TestNewAccessTokenExpired(t *testing.T) {
	// A negative TTL produces an already-expired token.
	access, err := NewAccessToken(testSecret, 1, "old", "registrado", -1)
	require.NoError(t, err)

	tok, err := jwt.Parse(access.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	assert.Error(t, err)
	if tok != nil {
		assert.False(t, tok.Valid)
	}
}
