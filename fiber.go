package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// Fiber-native helpers for applications that mount the auth flows on a raw
// fiber server instead of the router abstraction. They apply the same cookie
// policy as CookieOptions.

// SetFiberAuthCookies writes the token pair on a fiber response.
func SetFiberAuthCookies(c *fiber.Ctx, opts CookieOptions, pair TokenPair) {
	c.Cookie(fiberCookie(opts, AccessTokenCookie, pair.Access.Token, pair.Access.ExpiresAt))
	c.Cookie(fiberCookie(opts, RefreshTokenCookie, pair.Refresh.Token, pair.Refresh.ExpiresAt))
}

// ClearFiberAuthCookies expires both token cookies on a fiber response.
func ClearFiberAuthCookies(c *fiber.Ctx, opts CookieOptions) {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	c.Cookie(fiberCookie(opts, AccessTokenCookie, "", expired))
	c.Cookie(fiberCookie(opts, RefreshTokenCookie, "", expired))
}

// FiberErrorHandler renders rich errors with the shared JSON envelope. Mount
// it as the fiber app's ErrorHandler so handlers can simply return errors.
func FiberErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var rich *errors.Error
		if !errors.As(err, &rich) {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{
					"error": fiber.Map{"code": "INTERNAL", "message": fe.Message},
				})
			}
			rich = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := ErrorStatus(rich)

		if rich.Category == errors.CategoryInternal {
			logger.Error("request failed category=%s text_code=%s: %v", rich.Category, rich.TextCode, err)
			return c.Status(status).JSON(fiber.Map{
				"error": fiber.Map{"code": "INTERNAL", "message": "Internal server error"},
			})
		}

		body := fiber.Map{
			"code":    rich.TextCode,
			"message": rich.Message,
		}
		if len(rich.Metadata) > 0 {
			body["details"] = rich.Metadata
		}

		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}

func fiberCookie(opts CookieOptions, name, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   opts.profile.IsProduction(),
		SameSite: opts.sameSite(),
	}
}
