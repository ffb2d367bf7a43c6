package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingSubject is returned for tokens that do not name their holder
var ErrMissingSubject = errors.New("token has no subject")

// TokenVerifier validates HS256 session tokens issued by the auth service.
// It never mints tokens.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for tokens signed with secret
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		leeway: 30 * time.Second,
	}
}

// Verify parses tokenString and returns its claims if the signature, algorithm
// and expiry all check out
func (v *TokenVerifier) Verify(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
