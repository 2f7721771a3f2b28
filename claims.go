package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind is the discriminator embedded in every token. Verification
// checks it after the signature so an access token can never stand in for a
// refresh token, or the reverse.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ClaimsContextKey is the router.Context locals key where the middleware
// chain stores validated claims.
const ClaimsContextKey = "auth_claims"

// SubjectClaims is the caller supplied input for token issuance. Subject is
// always required; Version is required for access tokens so that a stored
// version counter can mass-invalidate outstanding tokens.
type SubjectClaims struct {
	Subject string
	Email   string
	Role    string
	Version *int
}

// AuthClaims represents validated structured claims.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	TokenID() string
	Kind() TokenKind
	Expires() time.Time
	IssuedAt() time.Time
	Version() *int
}

// JWTClaims is the concrete implementation of AuthClaims.
//
// Access tokens denormalize email and role for fast reads without a store
// round trip. Refresh tokens carry only the subject to minimize exposure if
// leaked.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserEmail    string    `json:"email,omitempty"`
	UserRole     string    `json:"role,omitempty"`
	TokenType    TokenKind `json:"type,omitempty"`
	TokenVersion *int      `json:"tv,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID is an alias for the subject claim.
func (c *JWTClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Email returns the denormalized profile email, empty on refresh tokens.
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Role returns the denormalized role, empty on refresh tokens.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// TokenID returns the unique token identifier (jti).
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Kind returns the token kind discriminator.
func (c *JWTClaims) Kind() TokenKind {
	return c.TokenType
}

// Version returns the token-version counter, nil when absent.
func (c *JWTClaims) Version() *int {
	return c.TokenVersion
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
