package auth

import (
	"strings"
	"unicode"
)

// PasswordViolation identifies a single failed strength rule.
type PasswordViolation string

const (
	ViolationLength     PasswordViolation = "length"
	ViolationLowercase  PasswordViolation = "lowercase_missing"
	ViolationUppercase  PasswordViolation = "uppercase_missing"
	ViolationDigit      PasswordViolation = "digit_missing"
	ViolationCommon     PasswordViolation = "common_password"
	ViolationSequential PasswordViolation = "sequential_characters"
	ViolationRepeated   PasswordViolation = "repeated_characters"
)

// commonPasswords is a fixed denylist checked case-insensitively.
var commonPasswords = []string{
	"password",
	"password1",
	"passw0rd",
	"letmein",
	"welcome",
	"iloveyou",
	"admin",
	"monkey",
	"dragon",
	"sunshine",
	"princess",
	"football",
	"baseball",
	"master",
	"shadow",
	"superman",
	"trustno1",
}

// sequentialRuns are recognizable keyboard or alphabet runs rejected as
// substrings, case-insensitively.
var sequentialRuns = []string{
	"123456",
	"654321",
	"abcdef",
	"qwerty",
	"asdfgh",
}

// PasswordStrength is the result of a strength check. Violations are
// collected, never short-circuited, so callers can display the complete list.
type PasswordStrength struct {
	Valid      bool
	Violations []PasswordViolation
}

// CheckPasswordStrength enforces the password policy: minimum length, at
// least one lowercase, uppercase, and digit, no common passwords, no
// sequential runs, and no 3+ identical consecutive characters.
func CheckPasswordStrength(password string) PasswordStrength {
	var violations []PasswordViolation

	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		violations = append(violations, ViolationLength)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower {
		violations = append(violations, ViolationLowercase)
	}
	if !hasUpper {
		violations = append(violations, ViolationUppercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationDigit)
	}

	lowered := strings.ToLower(password)

	for _, common := range commonPasswords {
		if lowered == common {
			violations = append(violations, ViolationCommon)
			break
		}
	}

	for _, run := range sequentialRuns {
		if strings.Contains(lowered, run) {
			violations = append(violations, ViolationSequential)
			break
		}
	}

	if hasRepeatedRun(password, 3) {
		violations = append(violations, ViolationRepeated)
	}

	return PasswordStrength{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}

// ValidatePasswordStrength adapts the strength check into an error for flow
// code, carrying every violation in the metadata.
func ValidatePasswordStrength(password string) error {
	strength := CheckPasswordStrength(password)
	if strength.Valid {
		return nil
	}

	violations := make([]string, 0, len(strength.Violations))
	for _, v := range strength.Violations {
		violations = append(violations, string(v))
	}

	return NewWeakPasswordError(violations)
}

func hasRepeatedRun(s string, n int) bool {
	count := 0
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			count++
			if count+1 >= n {
				return true
			}
		} else {
			count = 0
		}
		prev = r
	}
	return false
}
