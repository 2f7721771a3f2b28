package auth

import (
	stderrors "errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/skline4552/CleanStreak-Simplified-sub001/middleware/authware"
	"github.com/skline4552/CleanStreak-Simplified-sub001/middleware/ratelimit"
)

// FreshTokenMaxAge bounds how old a token may be for sensitive operations
// like password change and account deletion.
const FreshTokenMaxAge = 5 * time.Minute

type AuthControllerRoutes struct {
	Register string
	Login    string
	Logout   string
	Refresh  string
	Me       string
	Password string
	Account  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Auther       *Auther
	Cookies      CookieOptions
	Routes       *AuthControllerRoutes
	LoginRule    ratelimit.Rule
	RegisterRule ratelimit.Rule
	PasswordRule ratelimit.Rule
}

type AuthControllerOption func(*AuthController) *AuthController

func WithController(repo RepositoryManager, auther *Auther, cookies CookieOptions) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		c.Auther = auther
		c.Cookies = cookies
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithRateRules(login, register, password RateLimitRule) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.LoginRule = ratelimit.Rule{Window: login.Window, Max: login.Max, SkipSucceeded: login.SkipSucceeded}
		c.RegisterRule = ratelimit.Rule{Window: register.Window, Max: register.Max, SkipSucceeded: register.SkipSucceeded}
		c.PasswordRule = ratelimit.Rule{Window: password.Window, Max: password.Max, SkipSucceeded: password.SkipSucceeded}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register: "/auth/register",
			Login:    "/auth/login",
			Logout:   "/auth/logout",
			Refresh:  "/auth/refresh",
			Me:       "/auth/me",
			Password: "/auth/password",
			Account:  "/auth/account",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the account lifecycle endpoints on the app.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	mwConfig := NewAuthMiddlewareConfig(controller.Auther.TokenService())
	protected := authware.New(mwConfig)
	fresh := authware.RequireFresh(mwConfig, FreshTokenMaxAge)
	optional := authware.Optional(mwConfig)

	loginLimit := ratelimit.New(ratelimit.Config{Operation: "login", Rule: controller.LoginRule})
	registerLimit := ratelimit.New(ratelimit.Config{Operation: "register", Rule: controller.RegisterRule})
	passwordLimit := ratelimit.New(ratelimit.Config{Operation: "password", Rule: controller.PasswordRule})

	app.Post(controller.Routes.Register, controller.RegisterPost, registerLimit).
		SetName("auth.register.post")

	app.Post(controller.Routes.Login, controller.LoginPost, loginLimit).
		SetName("auth.login.post")

	app.Post(controller.Routes.Logout, controller.LogoutPost, optional).
		SetName("auth.logout.post")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh.post")

	app.Get(controller.Routes.Me, controller.MeGet, protected).
		SetName("auth.me.get")

	app.Post(controller.Routes.Password, controller.PasswordChangePost, protected, fresh, passwordLimit).
		SetName("auth.password.post")

	app.Delete(controller.Routes.Account, controller.AccountDelete, protected, fresh).
		SetName("auth.account.delete")
}

// RegisterRequest is the account creation payload.
type RegisterRequest struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	FirstName       string `json:"first_name" form:"first_name"`
	LastName        string `json:"last_name" form:"last_name"`
	Phone           string `json:"phone_number" form:"phone_number"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber)),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("validation failed", formatOzzoErrors(err)))
	}

	result, err := a.Auther.Register(ctx.Context(), RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Phone:     payload.Phone,
	}, sessionMetaFromContext(ctx))
	if err != nil {
		ratelimit.MarkFailure(ctx)
		a.Logger.Error("register error: %v", err)
		return RespondError(ctx, a.Logger, err)
	}

	SetAuthCookies(ctx, a.Cookies, result.Tokens)

	return ctx.JSON(router.StatusCreated, map[string]any{
		"user": PublicProfileFromUser(result.User),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("validation failed", formatOzzoErrors(err)))
	}

	result, err := a.Auther.Login(ctx.Context(), payload.Identifier, payload.Password, sessionMetaFromContext(ctx))
	if err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, err)
	}

	SetAuthCookies(ctx, a.Cookies, result.Tokens)

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": PublicProfileFromUser(result.User),
	})
}

// LogoutPost always responds 200 and clears both cookies, even when no
// session exists or the store is unavailable.
func (a *AuthController) LogoutPost(ctx router.Context) error {
	if claims, ok := authware.ClaimsFromContext(ctx, ClaimsContextKey); ok {
		if userID, err := uuid.Parse(claims.Subject()); err == nil {
			a.Auther.Logout(ctx.Context(), userID)
		}
	}

	ClearAuthCookies(ctx, a.Cookies)

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

// RefreshRequest carries the refresh token when the client cannot use
// cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// RefreshPost is a terminal handler: it verifies the refresh token from
// cookie or body, rotates the session, and sets fresh cookies.
func (a *AuthController) RefreshPost(ctx router.Context) error {
	raw := ctx.Cookies(RefreshTokenCookie)
	if raw == "" {
		payload := new(RefreshRequest)
		if err := ctx.Bind(payload); err == nil {
			raw = payload.RefreshToken
		}
	}

	if raw == "" {
		return RespondError(ctx, a.Logger, ErrNoToken)
	}

	result, err := a.Auther.Refresh(ctx.Context(), raw, sessionMetaFromContext(ctx))
	if err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	SetAuthCookies(ctx, a.Cookies, result.Tokens)

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": PublicProfileFromUser(result.User),
	})
}

func (a *AuthController) MeGet(ctx router.Context) error {
	claims, ok := authware.ClaimsFromContext(ctx, ClaimsContextKey)
	if !ok {
		return RespondError(ctx, a.Logger, authware.ErrNotAuthenticated)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), claims.Subject())
	if err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": PublicProfileFromUser(user),
	})
}

// ChangePasswordRequest re-verifies the current password before accepting a
// replacement.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
	)
}

func (a *AuthController) PasswordChangePost(ctx router.Context) error {
	claims, ok := authware.ClaimsFromContext(ctx, ClaimsContextKey)
	if !ok {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, authware.ErrNotAuthenticated)
	}

	userID, err := uuid.Parse(claims.Subject())
	if err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, ErrTokenMalformed)
	}

	payload := new(ChangePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("failed to parse request body", nil))
	}

	if err := payload.Validate(); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, NewValidationError("validation failed", formatOzzoErrors(err)))
	}

	if err := a.Auther.ChangePassword(ctx.Context(), userID, payload.CurrentPassword, payload.NewPassword); err != nil {
		ratelimit.MarkFailure(ctx)
		return RespondError(ctx, a.Logger, err)
	}

	// every session was revoked, the client must log in again
	ClearAuthCookies(ctx, a.Cookies)

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

// DeleteAccountRequest confirms an irreversible account deletion.
type DeleteAccountRequest struct {
	Password     string `json:"password" form:"password"`
	Confirmation string `json:"confirmation" form:"confirmation"`
	Email        string `json:"email" form:"email"`
}

func (a *AuthController) AccountDelete(ctx router.Context) error {
	claims, ok := authware.ClaimsFromContext(ctx, ClaimsContextKey)
	if !ok {
		return RespondError(ctx, a.Logger, authware.ErrNotAuthenticated)
	}

	userID, err := uuid.Parse(claims.Subject())
	if err != nil {
		return RespondError(ctx, a.Logger, ErrTokenMalformed)
	}

	payload := new(DeleteAccountRequest)
	if err := ctx.Bind(payload); err != nil {
		return RespondError(ctx, a.Logger, NewValidationError("failed to parse request body", nil))
	}

	if err := a.Auther.DeleteAccount(ctx.Context(), userID, payload.Password, payload.Confirmation, payload.Email); err != nil {
		return RespondError(ctx, a.Logger, err)
	}

	ClearAuthCookies(ctx, a.Cookies)

	return ctx.JSON(router.StatusOK, map[string]any{"ok": true})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber accepts empty values and otherwise requires a number
// that parses and validates for the default region.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return stderrors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return stderrors.New("must be a valid phone number")
	}

	return nil
}

func sessionMetaFromContext(ctx router.Context) SessionMeta {
	return SessionMeta{
		UserAgent: ctx.GetString("User-Agent", ""),
		IPAddress: ctx.IP(),
	}
}

// formatOzzoErrors flattens ozzo validation errors into a field->message map.
func formatOzzoErrors(err error) map[string]any {
	out := map[string]any{}

	var fieldErrors validation.Errors
	if stderrors.As(err, &fieldErrors) {
		for field, ferr := range fieldErrors {
			out[field] = ferr.Error()
		}
		return out
	}

	out["payload"] = err.Error()
	return out
}
