package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SetAuthCookies writes the token pair as http-only cookies on the response.
func SetAuthCookies(ctx router.Context, opts CookieOptions, pair TokenPair) {
	ctx.Cookie(opts.Access(pair.Access.Token, pair.Access.ExpiresAt))
	ctx.Cookie(opts.Refresh(pair.Refresh.Token, pair.Refresh.ExpiresAt))
}

// ClearAuthCookies expires both token cookies. Called on logout and account
// deletion regardless of whether the store call succeeded.
func ClearAuthCookies(ctx router.Context, opts CookieOptions) {
	for _, cookie := range opts.Cleared() {
		ctx.Cookie(cookie)
	}
}

// ErrorStatus maps a rich error to its HTTP status. Authorization failures
// carry no dedicated code constant, so the category decides.
func ErrorStatus(err *errors.Error) int {
	if err.Category == errors.CategoryAuthz {
		return router.StatusForbidden
	}

	if err.Code != 0 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return router.StatusBadRequest
	default:
		return router.StatusInternalServerError
	}
}

// RespondError renders err as the JSON error envelope every endpoint uses:
//
//	{"error": {"code": "TOKEN_EXPIRED", "message": "...", "details": {...}}}
//
// Internal errors are logged with their metadata but reach the client as an
// opaque message.
func RespondError(ctx router.Context, logger Logger, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		rich = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	if logger == nil {
		logger = defLogger{}
	}

	status := ErrorStatus(rich)

	if rich.Category == errors.CategoryInternal {
		logger.Error("request failed category=%s text_code=%s details=%s",
			rich.Category, rich.TextCode, print.MaybePrettyJSON(rich.Metadata))

		return ctx.JSON(status, map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "Internal server error",
			},
		})
	}

	logger.Debug("request rejected category=%s text_code=%s", rich.Category, rich.TextCode)

	body := map[string]any{
		"code":    rich.TextCode,
		"message": rich.Message,
	}
	if len(rich.Metadata) > 0 {
		body["details"] = rich.Metadata
	}

	return ctx.JSON(status, map[string]any{"error": body})
}
