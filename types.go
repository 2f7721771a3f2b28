package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
	TokenVersion() int
}

// TokenIssuer mints access and refresh tokens for a subject.
type TokenIssuer interface {
	IssueAccess(subject SubjectClaims) (IssuedToken, error)
	IssueRefresh(subject SubjectClaims) (IssuedToken, error)
	IssuePair(subject SubjectClaims) (TokenPair, error)
}

// TokenVerifier validates raw tokens and returns structured claims.
type TokenVerifier interface {
	VerifyAccess(token string) (AuthClaims, error)
	VerifyRefresh(token string) (AuthClaims, error)
	DecodeUnsafe(token string) AuthClaims
}

// IdentityProvider ensures we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// SessionMeta carries advisory device descriptors captured at login or
// refresh. They are stored with the session row for auditing and are not
// security critical.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// IssuedToken is the result of minting a single token.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenPair bundles the access and refresh tokens issued for one session.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
