package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"messaging-service/internal/models"
)

var ErrUnauthorized = errors.New("unauthorized")

// Verifier resolves a bearer credential into a participant identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// JWTVerifier validates HMAC-signed tokens issued by the platform's
// auth service. Expected claims: sub (participant id), role, username.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a JWTVerifier.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and extracts the identity.
func (v *JWTVerifier) Verify(_ context.Context, tokenStr string) (models.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Identity{}, ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return models.Identity{}, ErrUnauthorized
	}

	role, _ := claims["role"].(string)
	if !models.Role(role).Valid() {
		return models.Identity{}, ErrUnauthorized
	}
	username, _ := claims["username"].(string)

	return models.Identity{
		ParticipantRef: models.ParticipantRef{ID: sub, Role: models.Role(role)},
		Username:       username,
	}, nil
}
