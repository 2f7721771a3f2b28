package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Machine readable error codes surfaced to clients. Handlers echo these in the
// response body so front ends can branch without parsing messages.
const (
	TextCodeNoToken                = "NO_TOKEN"
	TextCodeTokenExpired           = "TOKEN_EXPIRED"
	TextCodeTokenMalformed         = "INVALID_TOKEN"
	TextCodeTokenWrongType         = "WRONG_TOKEN_TYPE"
	TextCodeTokenNotYetValid       = "TOKEN_NOT_YET_VALID"
	TextCodeAuthFailed             = "AUTH_FAILED"
	TextCodeUserExists             = "USER_EXISTS"
	TextCodeValidationFailed       = "VALIDATION_FAILED"
	TextCodeWeakPassword           = "WEAK_PASSWORD"
	TextCodeSamePassword           = "SAME_PASSWORD"
	TextCodeInvalidCurrentPassword = "INVALID_CURRENT_PASSWORD"
	TextCodeSessionNotFound        = "SESSION_NOT_FOUND"
	TextCodeNotAuthenticated       = "NOT_AUTHENTICATED"
	TextCodeForbidden              = "FORBIDDEN"
	TextCodeConfirmationMismatch   = "CONFIRMATION_MISMATCH"
	TextCodeTooManyAttempts        = "TOO_MANY_ATTEMPTS"
)

// ErrNoToken means the request carried no token where one was required.
var ErrNoToken = errors.New("No authentication token provided", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeNoToken)

// ErrTokenExpired is the normalized expired token error.
var ErrTokenExpired = errors.New("Authentication token expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers bad signatures, garbage input, and wrong issuers.
// The underlying library error is never surfaced.
var ErrTokenMalformed = errors.New("Invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenWrongType means a well formed, validly signed token of the wrong
// kind was presented, e.g. a refresh token where an access token is expected.
var ErrTokenWrongType = errors.New("Invalid authentication token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenWrongType)

// ErrTokenNotYetValid is returned for tokens used before their nbf claim.
var ErrTokenNotYetValid = errors.New("Authentication token not yet valid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenNotYetValid)

// ErrAuthFailed is the generic credential failure. The message is identical
// for unknown users and wrong passwords to avoid account enumeration.
var ErrAuthFailed = errors.New("Invalid email or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeAuthFailed)

// ErrUserExists signals a duplicate registration email.
var ErrUserExists = errors.New("An account with this email already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeUserExists)

// ErrSessionNotFound covers missing, inactive, and superseded sessions.
var ErrSessionNotFound = errors.New("Session not found or no longer active", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeSessionNotFound)

// ErrSamePassword rejects a password change to the current password.
var ErrSamePassword = errors.New("New password must differ from the current password", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeSamePassword)

// ErrInvalidCurrentPassword rejects a password change or account deletion when
// re-verification of the current password fails.
var ErrInvalidCurrentPassword = errors.New("Current password is incorrect", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCurrentPassword)

// ErrConfirmationMismatch rejects account deletion without the typed
// confirmation phrase and matching email.
var ErrConfirmationMismatch = errors.New("Confirmation phrase or email does not match", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeConfirmationMismatch)

// ErrTooManyLoginAttempts puts a credential in cooldown after repeated
// failures.
var ErrTooManyLoginAttempts = errors.New("Too many login attempts, try again later", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTooManyAttempts)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("Identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch marker. Callers
// translate it to ErrAuthFailed before it crosses the boundary.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth)

// ErrNoEmptyString rejects empty plaintext input to the hasher.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeValidationFailed)

// NewValidationError builds a field level validation failure with the
// violations attached as metadata.
func NewValidationError(message string, violations map[string]any) *errors.Error {
	err := errors.New(message, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeValidationFailed)
	if len(violations) > 0 {
		err = err.WithMetadata(violations)
	}
	return err
}

// NewWeakPasswordError reports every collected strength violation together.
func NewWeakPasswordError(violations []string) *errors.Error {
	return errors.New("Password does not meet the strength policy", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeWeakPassword).
		WithMetadata(map[string]any{"violations": violations})
}

// WrapStoreError normalizes infrastructure failures so they are never mistaken
// for a missing record and never leak driver detail to clients.
func WrapStoreError(err error, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, message)
}

// IsUniqueViolation reports whether err is a duplicate-key failure from one of
// the drivers we run against: SQLSTATE 23505 on postgres, "UNIQUE constraint
// failed" on sqlite. Neither driver exposes a typed error through bun here.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE=23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenExpired
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenMalformed
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// TokenErrorKind normalizes any verification failure into one of the stable
// kinds the transport layer is allowed to see.
func TokenErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		switch rich.TextCode {
		case TextCodeNoToken:
			return "no-token"
		case TextCodeTokenExpired:
			return "expired"
		case TextCodeTokenWrongType:
			return "wrong-type"
		case TextCodeTokenNotYetValid:
			return "not-yet-valid"
		}
	}
	return "invalid"
}
