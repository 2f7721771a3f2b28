package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/skline4552/CleanStreak-Simplified-sub001"
)

func setRequiredAuthEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_ACCESS_SECRET", "access-secret-value")
	t.Setenv("AUTH_REFRESH_SECRET", "refresh-secret-value")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequiredAuthEnv(t)

		cfg, err := auth.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, auth.ProfileDevelopment, cfg.Profile())
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, "cleanstreak", cfg.Issuer)
	})

	t.Run("missing secrets", func(t *testing.T) {
		t.Setenv("AUTH_ACCESS_SECRET", "")
		t.Setenv("AUTH_REFRESH_SECRET", "")

		_, err := auth.LoadConfig()
		assert.Error(t, err)
	})

	t.Run("identical secrets", func(t *testing.T) {
		t.Setenv("AUTH_ACCESS_SECRET", "same-secret")
		t.Setenv("AUTH_REFRESH_SECRET", "same-secret")

		_, err := auth.LoadConfig()
		assert.Error(t, err)
	})

	t.Run("unknown environment", func(t *testing.T) {
		setRequiredAuthEnv(t)
		t.Setenv("AUTH_ENVIRONMENT", "staging")

		_, err := auth.LoadConfig()
		assert.Error(t, err)
	})

	t.Run("explicit overrides", func(t *testing.T) {
		setRequiredAuthEnv(t)
		t.Setenv("AUTH_ENVIRONMENT", "production")
		t.Setenv("AUTH_ACCESS_TTL", "5m")
		t.Setenv("AUTH_LOGIN_RATE_MAX", "3")
		t.Setenv("AUTH_LOGIN_RATE_WINDOW", "1m")

		cfg, err := auth.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, auth.ProfileProduction, cfg.Profile())
		assert.True(t, cfg.Profile().IsProduction())
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)

		rule := cfg.LoginRateRule()
		assert.Equal(t, 3, rule.Max)
		assert.Equal(t, time.Minute, rule.Window)
		assert.True(t, rule.SkipSucceeded)
	})

	t.Run("registration rule never skips succeeded", func(t *testing.T) {
		setRequiredAuthEnv(t)

		cfg, err := auth.LoadConfig()
		require.NoError(t, err)

		assert.False(t, cfg.RegisterRateRule().SkipSucceeded)
	})
}

func TestNewTokenServiceFromConfig(t *testing.T) {
	setRequiredAuthEnv(t)

	cfg, err := auth.LoadConfig()
	require.NoError(t, err)

	ts, err := auth.NewTokenServiceFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.AccessTokenTTL, ts.AccessTTL())
	assert.Equal(t, cfg.RefreshTokenTTL, ts.RefreshTTL())
}
