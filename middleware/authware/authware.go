package authware

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

var defaultTokenLookup = "header:" + router.HeaderAuthorization + ",cookie:accessToken,query:token"

// TokenValidator validates raw access tokens without importing the auth
// package, avoiding an import cycle.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenValidatorFunc adapts a function to the TokenValidator interface.
type TokenValidatorFunc func(tokenString string) (AuthClaims, error)

func (f TokenValidatorFunc) Validate(tokenString string) (AuthClaims, error) {
	return f(tokenString)
}

// AuthClaims is the subset of validated claims the middleware needs. It
// mirrors the claims interface of the auth package.
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Role() string
	TokenID() string
	Expires() time.Time
	IssuedAt() time.Time
}

// ValidationListener is invoked after a token has been validated but before authorization checks.
type ValidationListener func(ctx router.Context, claims AuthClaims) error

type Config struct {
	// Filter skips the middleware entirely when it returns true.
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler

	// ContextKey is the locals key validated claims are stored under.
	ContextKey string

	// TokenLookup is a comma separated list of `source:name` entries tried
	// in order, e.g. "header:Authorization,cookie:accessToken,query:token".
	TokenLookup string
	AuthScheme  string

	// Validator is required.
	Validator TokenValidator

	// ContextEnricher propagates claims to the standard Go context after a
	// successful validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context

	// ValidationListeners are invoked after token validation succeeds.
	ValidationListeners []ValidationListener
}

// New returns the authenticate middleware: it extracts a token, validates
// it, and stores the claims in the request context. Requests without a
// valid token never reach the handler.
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if _, err := authenticate(ctx, cfg); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// Optional behaves like New except a missing or invalid token is not
// terminal: the request proceeds anonymously with no claims attached.
func Optional(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if _, err := authenticate(ctx, cfg); err != nil {
				// anonymous access is fine here
				return ctx.Next()
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func authenticate(ctx router.Context, cfg Config) (AuthClaims, error) {
	raw, err := ExtractRawTokenFromContext(ctx, cfg.getExtractors())
	if err != nil || raw == "" {
		return nil, ErrNoToken
	}

	claims, err := cfg.Validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	if err := cfg.runValidationListeners(ctx, claims); err != nil {
		return nil, err
	}

	ctx.Locals(cfg.ContextKey, claims)

	if cfg.ContextEnricher != nil {
		ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))
	}

	return claims, nil
}

// RequireRoles authorizes the request only when the authenticated role is
// one of the given roles. It must run after New.
func RequireRoles(cfg Config, roles ...string) router.MiddlewareFunc {
	c := GetDefaultConfig(cfg)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ClaimsFromContext(ctx, c.ContextKey)
			if !ok {
				return c.ErrorHandler(ctx, ErrNotAuthenticated)
			}

			// no required roles means any authenticated user may pass
			if len(roles) == 0 {
				return ctx.Next()
			}

			for _, role := range roles {
				if claims.Role() == role {
					return ctx.Next()
				}
			}

			return c.ErrorHandler(ctx, ErrInsufficientRole)
		}
	}
}

// RequireFresh gates sensitive operations behind a recently issued token.
// A token inside its validity window but older than maxAge is rejected.
func RequireFresh(cfg Config, maxAge time.Duration) router.MiddlewareFunc {
	c := GetDefaultConfig(cfg)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ClaimsFromContext(ctx, c.ContextKey)
			if !ok {
				return c.ErrorHandler(ctx, ErrNotAuthenticated)
			}

			issued := claims.IssuedAt()
			if issued.IsZero() || time.Since(issued) > maxAge {
				return c.ErrorHandler(ctx, ErrStaleToken)
			}

			return ctx.Next()
		}
	}
}

// RequireOwnership fails closed unless the authenticated subject matches
// the route parameter. This is the only authorization primitive: every
// resource belongs to exactly one user.
func RequireOwnership(cfg Config, paramName string) router.MiddlewareFunc {
	c := GetDefaultConfig(cfg)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims, ok := ClaimsFromContext(ctx, c.ContextKey)
			if !ok {
				return c.ErrorHandler(ctx, ErrNotAuthenticated)
			}

			owner := ctx.Param(paramName)
			if owner == "" || owner != claims.Subject() {
				return c.ErrorHandler(ctx, ErrNotOwner)
			}

			return ctx.Next()
		}
	}
}

// ClaimsFromContext retrieves validated claims stored by New or Optional.
func ClaimsFromContext(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AuthClaims)
	return claims, ok
}

// DefaultContextKey is where validated claims live in the request locals.
const DefaultContextKey = "auth_claims"

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = DefaultErrorHandler
	}

	if cfg.Validator == nil {
		panic("AUTH: middleware configuration: Validator is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

// DefaultErrorHandler renders the rich error as JSON with its mapped HTTP
// status and machine readable text code.
func DefaultErrorHandler(ctx router.Context, err error) error {
	status := router.StatusUnauthorized
	code := "NOT_AUTHENTICATED"
	message := "Not authenticated"

	var rich *errors.Error
	if errors.As(err, &rich) {
		if rich.Code != 0 {
			status = rich.Code
		}
		if rich.Category == errors.CategoryAuthz {
			status = router.StatusForbidden
		}
		if rich.TextCode != "" {
			code = rich.TextCode
		}
		if rich.Message != "" {
			message = rich.Message
		}
	}

	return ctx.JSON(status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func (cfg *Config) runValidationListeners(ctx router.Context, claims AuthClaims) error {
	for _, listener := range cfg.ValidationListeners {
		if listener == nil {
			continue
		}
		if err := listener(ctx, claims); err != nil {
			return err
		}
	}
	return nil
}
