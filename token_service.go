package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Default token lifetimes. Access tokens are minutes-scale so a revoked
// session goes quiet quickly; refresh tokens are days-scale.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenService signs and verifies the access/refresh token pair. The two
// kinds use distinct HMAC keys, so a token signed with one key can never
// verify under the other even before the kind discriminator is checked.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
}

var (
	_ TokenIssuer   = (*TokenService)(nil)
	_ TokenVerifier = (*TokenService)(nil)
)

// NewTokenService creates a TokenService. Both keys are required and must
// differ; zero TTLs fall back to the defaults.
func NewTokenService(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration, issuer string, logger Logger) (*TokenService, error) {
	if len(accessKey) == 0 || len(refreshKey) == 0 {
		return nil, errors.New("both signing keys are required", errors.CategoryBadInput)
	}

	if subtle.ConstantTimeCompare(accessKey, refreshKey) == 1 {
		return nil, errors.New("access and refresh signing keys must differ", errors.CategoryBadInput)
	}

	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	if logger == nil {
		logger = defLogger{}
	}

	return &TokenService{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		logger:     logger,
	}, nil
}

// IssueAccess mints a short lived access token. The subject id and a
// non-nil token version are hard preconditions: the version counter is what
// makes mass session invalidation possible once it is wired end to end.
func (ts *TokenService) IssueAccess(subject SubjectClaims) (IssuedToken, error) {
	if subject.Subject == "" {
		return IssuedToken{}, errors.New("subject id is required", errors.CategoryBadInput)
	}
	if subject.Version == nil {
		return IssuedToken{}, errors.New("token version is required for access tokens", errors.CategoryBadInput)
	}

	claims := ts.newClaims(subject.Subject, TokenKindAccess, ts.accessTTL)
	claims.UserEmail = subject.Email
	claims.UserRole = subject.Role
	claims.TokenVersion = subject.Version

	return ts.sign(claims, ts.accessKey)
}

// IssueRefresh mints a long lived refresh token carrying only the subject id.
func (ts *TokenService) IssueRefresh(subject SubjectClaims) (IssuedToken, error) {
	if subject.Subject == "" {
		return IssuedToken{}, errors.New("subject id is required", errors.CategoryBadInput)
	}

	claims := ts.newClaims(subject.Subject, TokenKindRefresh, ts.refreshTTL)

	return ts.sign(claims, ts.refreshKey)
}

// IssuePair mints a matched access and refresh token for one session.
func (ts *TokenService) IssuePair(subject SubjectClaims) (TokenPair, error) {
	access, err := ts.IssueAccess(subject)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := ts.IssueRefresh(subject)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess validates a raw access token and returns structured claims.
func (ts *TokenService) VerifyAccess(token string) (AuthClaims, error) {
	return ts.verify(token, TokenKindAccess, ts.accessKey)
}

// VerifyRefresh validates a raw refresh token and returns structured claims.
func (ts *TokenService) VerifyRefresh(token string) (AuthClaims, error) {
	return ts.verify(token, TokenKindRefresh, ts.refreshKey)
}

// DecodeUnsafe structurally decodes a token without signature verification.
// It exists for logging and expiry probing only and must never feed an
// authorization decision. Returns nil on any structural failure.
func (ts *TokenService) DecodeUnsafe(token string) AuthClaims {
	if token == "" {
		return nil
	}

	parser := jwt.NewParser()
	claims := &JWTClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	return claims
}

func (ts *TokenService) newClaims(subject string, kind TokenKind, ttl time.Duration) *JWTClaims {
	now := time.Now()

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (ts *TokenService) sign(claims *JWTClaims, key []byte) (IssuedToken, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return IssuedToken{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return IssuedToken{
		Token:     signed,
		ID:        claims.RegisteredClaims.ID,
		ExpiresAt: claims.Expires(),
	}, nil
}

func (ts *TokenService) verify(tokenString string, kind TokenKind, key []byte) (AuthClaims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		// Restricting to HMAC also rejects alg=none tokens outright.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.TokenType != kind {
		ts.logger.Warn("TokenService verify rejected token of wrong kind, expected %s got %s", kind, claims.TokenType)
		return nil, ErrTokenWrongType
	}

	return claims, nil
}

// AccessTTL reports the configured access token lifetime.
func (ts *TokenService) AccessTTL() time.Duration {
	return ts.accessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (ts *TokenService) RefreshTTL() time.Duration {
	return ts.refreshTTL
}
