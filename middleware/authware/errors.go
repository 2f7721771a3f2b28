package authware

import "github.com/goliatone/go-errors"

// ErrNoToken means no token was found in any configured lookup source.
var ErrNoToken = errors.New("No authentication token provided", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("NO_TOKEN")

// ErrNotAuthenticated means an authorization middleware ran without a
// preceding successful authentication.
var ErrNotAuthenticated = errors.New("Authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("NOT_AUTHENTICATED")

// ErrInsufficientRole means the authenticated role is not allowed here.
var ErrInsufficientRole = errors.New("Insufficient permissions", errors.CategoryAuthz).
	WithTextCode("FORBIDDEN")

// ErrStaleToken means the token is still valid but was not issued recently
// enough for this operation.
var ErrStaleToken = errors.New("Recent authentication required", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("STALE_TOKEN")

// ErrNotOwner means the authenticated subject does not own the resource.
var ErrNotOwner = errors.New("You do not have access to this resource", errors.CategoryAuthz).
	WithTextCode("FORBIDDEN")
