package utils

import (
	"errors"
	"time"

	"gamewallet/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "gamewallet"

// GenerateToken signs an access token for the given actor.
func GenerateToken(actor models.Actor, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := models.ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   actor.ID,
		},
		ActorID:  actor.ID,
		Username: actor.Username,
		Role:     actor.Role,
		TenantID: actor.TenantID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken parses and validates a token string.
func ParseToken(tokenStr, secret string) (*models.ActorClaims, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.ActorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	claims.Role = models.ParseRole(string(claims.Role))
	if claims.ActorID == "" || !claims.Role.Valid() {
		return nil, errors.New("token does not name a known actor role")
	}
	return claims, nil
}
