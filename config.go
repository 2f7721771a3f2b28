package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Profile is the deployment profile resolved once at process start. It is the
// single switch for environment dependent behavior such as cookie attributes.
type Profile string

const (
	ProfileDevelopment Profile = "development"
	ProfileTest        Profile = "test"
	ProfileProduction  Profile = "production"
)

// IsProduction reports whether the profile is production-like.
func (p Profile) IsProduction() bool {
	return p == ProfileProduction
}

// RateLimitRule configures one operation's fixed window limit.
type RateLimitRule struct {
	Window        time.Duration
	Max           int
	SkipSucceeded bool
}

// Config holds every knob the auth layer reads. It is constructed once,
// validated, and passed by reference into constructors; business logic never
// reads the environment directly.
type Config struct {
	Environment string `env:"AUTH_ENVIRONMENT" envDefault:"development"`

	AccessSigningSecret  string        `env:"AUTH_ACCESS_SECRET"`
	RefreshSigningSecret string        `env:"AUTH_REFRESH_SECRET"`
	AccessTokenTTL       time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"AUTH_REFRESH_TTL" envDefault:"168h"`
	Issuer               string        `env:"AUTH_ISSUER" envDefault:"cleanstreak"`

	LoginRateWindow    time.Duration `env:"AUTH_LOGIN_RATE_WINDOW" envDefault:"15m"`
	LoginRateMax       int           `env:"AUTH_LOGIN_RATE_MAX" envDefault:"10"`
	LoginRateSkipOK    bool          `env:"AUTH_LOGIN_RATE_SKIP_OK" envDefault:"true"`
	RegisterRateWindow time.Duration `env:"AUTH_REGISTER_RATE_WINDOW" envDefault:"1h"`
	RegisterRateMax    int           `env:"AUTH_REGISTER_RATE_MAX" envDefault:"5"`
	PasswordRateWindow time.Duration `env:"AUTH_PASSWORD_RATE_WINDOW" envDefault:"15m"`
	PasswordRateMax    int           `env:"AUTH_PASSWORD_RATE_MAX" envDefault:"5"`
	PasswordRateSkipOK bool          `env:"AUTH_PASSWORD_RATE_SKIP_OK" envDefault:"true"`
}

// LoadConfig resolves the configuration from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse auth environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the configuration contract.
func (c *Config) Validate() error {
	if c.AccessSigningSecret == "" || c.RefreshSigningSecret == "" {
		return errors.New("access and refresh signing secrets are required", errors.CategoryBadInput)
	}

	if c.AccessSigningSecret == c.RefreshSigningSecret {
		return errors.New("access and refresh signing secrets must differ", errors.CategoryBadInput)
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive", errors.CategoryBadInput)
	}

	switch Profile(c.Environment) {
	case ProfileDevelopment, ProfileTest, ProfileProduction:
	default:
		return errors.New("environment must be development, test, or production", errors.CategoryBadInput)
	}

	return nil
}

// Profile returns the resolved deployment profile.
func (c *Config) Profile() Profile {
	return Profile(c.Environment)
}

// LoginRateRule returns the login rate limit rule.
func (c *Config) LoginRateRule() RateLimitRule {
	return RateLimitRule{Window: c.LoginRateWindow, Max: c.LoginRateMax, SkipSucceeded: c.LoginRateSkipOK}
}

// RegisterRateRule returns the registration rate limit rule. Registration
// never exempts successful requests; account creation is expensive either way.
func (c *Config) RegisterRateRule() RateLimitRule {
	return RateLimitRule{Window: c.RegisterRateWindow, Max: c.RegisterRateMax}
}

// PasswordRateRule returns the password-change rate limit rule.
func (c *Config) PasswordRateRule() RateLimitRule {
	return RateLimitRule{Window: c.PasswordRateWindow, Max: c.PasswordRateMax, SkipSucceeded: c.PasswordRateSkipOK}
}

// NewTokenServiceFromConfig wires a TokenService from a validated Config.
func NewTokenServiceFromConfig(cfg *Config, logger Logger) (*TokenService, error) {
	return NewTokenService(
		[]byte(cfg.AccessSigningSecret),
		[]byte(cfg.RefreshSigningSecret),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		cfg.Issuer,
		logger,
	)
}
