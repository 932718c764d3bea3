package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/quillhq/quill/config"
	"github.com/quillhq/quill/models"
)

// Claims defines the JWT claims carried by access tokens. Role travels with
// the token so the middleware can build a caller without a user lookup.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues an HS256 JWT for the given user.
func GenerateToken(u *models.User, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// JWTIssuer adapts token generation to the workflow service's TokenIssuer
// contract.
type JWTIssuer struct {
	TTL time.Duration
}

// Issue mints a token for the user with the configured lifetime.
func (i JWTIssuer) Issue(u *models.User) (string, error) {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return GenerateToken(u, ttl)
}
