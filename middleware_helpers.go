package auth

import (
	"context"

	"github.com/skline4552/CleanStreak-Simplified-sub001/middleware/authware"
)

// NewAccessTokenValidator bridges the TokenService into the middleware's
// validator interface.
func NewAccessTokenValidator(tokens *TokenService) authware.TokenValidator {
	return authware.TokenValidatorFunc(func(raw string) (authware.AuthClaims, error) {
		claims, err := tokens.VerifyAccess(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

// ClaimsContextEnricher propagates validated claims into the standard Go
// context so store calls made by downstream handlers can see the subject.
func ClaimsContextEnricher(ctx context.Context, claims authware.AuthClaims) context.Context {
	if ac, ok := claims.(AuthClaims); ok {
		return WithClaimsContext(ctx, ac)
	}
	return ctx
}

// NewAuthMiddlewareConfig assembles the middleware configuration used by
// every protected route: bearer header, access cookie, then query fallback.
func NewAuthMiddlewareConfig(tokens *TokenService) authware.Config {
	return authware.Config{
		Validator:       NewAccessTokenValidator(tokens),
		ContextKey:      ClaimsContextKey,
		ContextEnricher: ClaimsContextEnricher,
	}
}
