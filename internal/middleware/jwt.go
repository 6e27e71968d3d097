// Package middleware holds the guest-token validation shared by the HTTP
// and WebSocket entry points.
package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// GuestClaims are the claims in a guest token: ephemeral display attributes
// only, no stable identity.
type GuestClaims struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
	jwt.RegisteredClaims
}

// ParseGuestToken validates a guest token and returns its claims.
func ParseGuestToken(tokenString, jwtSecret string) (*GuestClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	token, err := jwt.ParseWithClaims(tokenString, &GuestClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*GuestClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
