package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ensureTokenID assigns a fresh random jti when the claims have none.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

// NewTokenID mints a unique token identifier.
func NewTokenID() string {
	return uuid.NewString()
}
