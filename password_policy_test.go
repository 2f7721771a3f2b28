package auth_test

import (
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/skline4552/CleanStreak-Simplified-sub001"
)

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		valid      bool
		violations []auth.PasswordViolation
	}{
		{
			name:     "Strong password",
			password: "Secure97!pass",
			valid:    true,
		},
		{
			name:       "Too short",
			password:   "Ab1xyzm",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationLength},
		},
		{
			name:       "Too long",
			password:   "A1" + strings.Repeat("long", 40),
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationLength},
		},
		{
			name:       "Missing uppercase and digit",
			password:   "lowercaseonly",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationUppercase, auth.ViolationDigit},
		},
		{
			name:       "Missing lowercase",
			password:   "ALLUPPER123",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationLowercase},
		},
		{
			name:     "Common password collects every broken rule",
			password: "password",
			valid:    false,
			violations: []auth.PasswordViolation{
				auth.ViolationUppercase,
				auth.ViolationDigit,
				auth.ViolationCommon,
			},
		},
		{
			name:       "Denylist match is case insensitive",
			password:   "Trustno1",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationCommon},
		},
		{
			name:       "Sequential digits",
			password:   "Xy123456beta",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationSequential},
		},
		{
			name:       "Keyboard run",
			password:   "Qwerty99pass",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationSequential},
		},
		{
			name:       "Three identical characters in a row",
			password:   "Goood1password",
			valid:      false,
			violations: []auth.PasswordViolation{auth.ViolationRepeated},
		},
		{
			name:     "Two identical characters are fine",
			password: "Good1password",
			valid:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.CheckPasswordStrength(tt.password)

			assert.Equal(t, tt.valid, result.Valid)
			assert.ElementsMatch(t, tt.violations, result.Violations)
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("valid password returns nil", func(t *testing.T) {
		assert.NoError(t, auth.ValidatePasswordStrength("Secure97!pass"))
	})

	t.Run("weak password carries violations as metadata", func(t *testing.T) {
		err := auth.ValidatePasswordStrength("abc")

		require.Error(t, err)
		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, auth.TextCodeWeakPassword, rich.TextCode)

		violations, ok := rich.Metadata["violations"].([]string)
		require.True(t, ok)
		assert.Contains(t, violations, string(auth.ViolationLength))
		assert.Contains(t, violations, string(auth.ViolationUppercase))
		assert.Contains(t, violations, string(auth.ViolationDigit))
	})
}
