package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":      "42",
		"role":     "user",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "42", identity.ID)
	assert.Equal(t, models.RoleUser, identity.Role)
	assert.Equal(t, "alice", identity.Username)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "other", jwt.MapClaims{"sub": "42", "role": "user"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{
		"sub":  "42",
		"role": "user",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyMissingSubject(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{"role": "user"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyUnknownRole(t *testing.T) {
	v := NewJWTVerifier("secret")
	token := signToken(t, "secret", jwt.MapClaims{"sub": "42", "role": "bot"})

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyGarbage(t *testing.T) {
	v := NewJWTVerifier("secret")

	_, err := v.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
