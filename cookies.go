package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

// Cookie names the transport layer uses for the token pair.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieOptions resolves environment dependent cookie attributes once from
// the deployment profile. HTTPOnly is unconditional. SameSite=Strict breaks
// some cross-origin setups, so it degrades to Lax outside production.
type CookieOptions struct {
	profile Profile
}

// NewCookieOptions builds the cookie option set for a profile.
func NewCookieOptions(profile Profile) CookieOptions {
	return CookieOptions{profile: profile}
}

// Access builds the short lived access token cookie.
func (o CookieOptions) Access(token string, expiresAt time.Time) *router.Cookie {
	return o.build(AccessTokenCookie, token, expiresAt)
}

// Refresh builds the long lived refresh token cookie.
func (o CookieOptions) Refresh(token string, expiresAt time.Time) *router.Cookie {
	return o.build(RefreshTokenCookie, token, expiresAt)
}

// Cleared returns expired empty-value cookies for both token names, used on
// logout and account deletion.
func (o CookieOptions) Cleared() []*router.Cookie {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	return []*router.Cookie{
		o.build(AccessTokenCookie, "", expired),
		o.build(RefreshTokenCookie, "", expired),
	}
}

func (o CookieOptions) build(name, value string, expires time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   o.profile.IsProduction(),
		SameSite: o.sameSite(),
	}
}

func (o CookieOptions) sameSite() string {
	if o.profile.IsProduction() {
		return "Strict"
	}
	return "Lax"
}
