package auth

import (
	"crypto/sha256"
	"encoding/base64"
	stderrors "errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordMinLength and PasswordMaxLength bound the accepted plaintext size.
const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
)

// bcrypt only keys on the first 72 bytes of its input, which is shorter than
// PasswordMaxLength. Plaintext is pre-digested to a fixed 44 byte encoding so
// every character of an accepted password contributes to the hash.
func digestPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// HashPassword will generate a salted password hash. Each call produces a
// different digest for the same plaintext because bcrypt embeds a random salt.
func HashPassword(password string) (string, error) {
	if err := checkPasswordBounds(password); err != nil {
		return "", err
	}

	h, err := bcrypt.GenerateFromPassword(digestPassword(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. Mismatches return ErrMismatchedHashAndPassword;
// execution time does not depend on where the mismatch occurs.
func ComparePasswordAndHash(password, hash string) error {
	if hash == "" {
		return ErrNoEmptyString
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), digestPassword(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash returns the hash of a throwaway random password. It is
// used both for provisional accounts and as the comparison target on the
// unknown-user login path so that failures cost the same either way.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

func checkPasswordBounds(password string) error {
	if password == "" {
		return ErrNoEmptyString
	}
	if len(password) < PasswordMinLength || len(password) > PasswordMaxLength {
		return NewValidationError("password length out of bounds", map[string]any{
			"min": PasswordMinLength,
			"max": PasswordMaxLength,
		})
	}
	return nil
}
