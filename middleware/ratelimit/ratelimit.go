package ratelimit

import (
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ErrRateLimited is returned once a client exhausts its attempt budget.
var ErrRateLimited = errors.New("Too many attempts, try again later", errors.CategoryOperation).
	WithTextCode("RATE_LIMITED")

// FailureContextKey is the locals flag handlers set when the guarded
// operation failed. With SkipSucceeded enabled, requests without the flag
// are refunded so only abusive failed attempts consume budget.
const FailureContextKey = "ratelimit_op_failed"

// Rule bounds one operation type: at most Max attempts per Window.
type Rule struct {
	Window time.Duration
	Max    int
	// SkipSucceeded refunds attempts that completed without a failure mark.
	SkipSucceeded bool
}

type Config struct {
	// Operation names the guarded flow (login, register, password). It is
	// part of the counter key so flows never share budgets.
	Operation string

	Rule Rule

	// KeyFunc derives the client identity, by default the remote IP.
	KeyFunc func(router.Context) string

	// Store holds the counters. Defaults to a process local memory store.
	Store Store

	ErrorHandler router.ErrorHandler
}

// New returns a middleware enforcing the configured rule. Counters use a
// fixed window: the first attempt opens the window, and the count resets
// once it elapses.
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefault(config...)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Rule.Max <= 0 {
				return ctx.Next()
			}

			key := cfg.Operation + ":" + cfg.KeyFunc(ctx)

			count, err := cfg.Store.Increment(key, cfg.Rule.Window)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if count > cfg.Rule.Max {
				return cfg.ErrorHandler(ctx, ErrRateLimited)
			}

			if err := ctx.Next(); err != nil {
				return err
			}

			if cfg.Rule.SkipSucceeded && !WasFailure(ctx) {
				cfg.Store.Forgive(key)
			}

			return nil
		}
	}
}

// MarkFailure flags the current request as a failed attempt so it keeps
// counting toward the budget even under SkipSucceeded.
func MarkFailure(ctx router.Context) {
	ctx.Locals(FailureContextKey, true)
}

// WasFailure reports whether the current request was marked as failed.
func WasFailure(ctx router.Context) bool {
	raw := ctx.Locals(FailureContextKey)
	failed, ok := raw.(bool)
	return ok && failed
}

func configDefault(config ...Config) Config {
	var cfg Config
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Operation == "" {
		cfg.Operation = "default"
	}

	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(ctx router.Context) string {
			return ctx.IP()
		}
	}

	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.Rule.Window <= 0 {
		cfg.Rule.Window = 15 * time.Minute
	}

	return cfg
}

func defaultErrorHandler(ctx router.Context, err error) error {
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == "RATE_LIMITED" {
		return ctx.JSON(router.StatusTooManyRequests, map[string]any{
			"error": map[string]any{
				"code":    rich.TextCode,
				"message": rich.Message,
			},
		})
	}

	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"code":    "INTERNAL",
			"message": "Internal server error",
		},
	})
}
