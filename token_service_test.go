package auth_test

import (
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/skline4552/CleanStreak-Simplified-sub001"
)

var (
	testAccessKey  = []byte("test-access-signing-key")
	testRefreshKey = []byte("test-refresh-signing-key")
)

func mustTokenService(t *testing.T, accessTTL, refreshTTL time.Duration, issuer string) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(testAccessKey, testRefreshKey, accessTTL, refreshTTL, issuer, nil)
	require.NoError(t, err)
	return ts
}

func textCodeOf(t *testing.T, err error) string {
	t.Helper()
	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich), "expected a structured error, got %v", err)
	return rich.TextCode
}

func TestNewTokenService(t *testing.T) {
	t.Run("requires both keys", func(t *testing.T) {
		_, err := auth.NewTokenService(nil, testRefreshKey, 0, 0, "", nil)
		assert.Error(t, err)

		_, err = auth.NewTokenService(testAccessKey, nil, 0, 0, "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects identical keys", func(t *testing.T) {
		_, err := auth.NewTokenService(testAccessKey, testAccessKey, 0, 0, "", nil)
		assert.Error(t, err)
	})

	t.Run("zero TTLs fall back to defaults", func(t *testing.T) {
		ts := mustTokenService(t, 0, 0, "")
		assert.Equal(t, auth.DefaultAccessTokenTTL, ts.AccessTTL())
		assert.Equal(t, auth.DefaultRefreshTokenTTL, ts.RefreshTTL())
	})
}

func TestTokenRoundTrip(t *testing.T) {
	ts := mustTokenService(t, time.Minute, time.Hour, "cleanstreak")
	version := 3
	subject := auth.SubjectClaims{
		Subject: "c0ffee00-0000-0000-0000-000000000001",
		Email:   "user@example.com",
		Role:    "member",
		Version: &version,
	}

	t.Run("access token carries the denormalized profile", func(t *testing.T) {
		issued, err := ts.IssueAccess(subject)
		require.NoError(t, err)
		assert.NotEmpty(t, issued.ID)

		claims, err := ts.VerifyAccess(issued.Token)
		require.NoError(t, err)
		assert.Equal(t, subject.Subject, claims.Subject())
		assert.Equal(t, subject.Email, claims.Email())
		assert.Equal(t, subject.Role, claims.Role())
		assert.Equal(t, auth.TokenKindAccess, claims.Kind())
		assert.Equal(t, issued.ID, claims.TokenID())
		require.NotNil(t, claims.Version())
		assert.Equal(t, version, *claims.Version())
	})

	t.Run("refresh token carries only the subject", func(t *testing.T) {
		issued, err := ts.IssueRefresh(subject)
		require.NoError(t, err)

		claims, err := ts.VerifyRefresh(issued.Token)
		require.NoError(t, err)
		assert.Equal(t, subject.Subject, claims.Subject())
		assert.Empty(t, claims.Email())
		assert.Empty(t, claims.Role())
		assert.Equal(t, auth.TokenKindRefresh, claims.Kind())
	})

	t.Run("pair shares a subject but not a jti", func(t *testing.T) {
		pair, err := ts.IssuePair(subject)
		require.NoError(t, err)
		assert.NotEqual(t, pair.Access.ID, pair.Refresh.ID)
		assert.True(t, pair.Refresh.ExpiresAt.After(pair.Access.ExpiresAt))
	})

	t.Run("access token requires a version", func(t *testing.T) {
		_, err := ts.IssueAccess(auth.SubjectClaims{Subject: subject.Subject})
		assert.Error(t, err)

		// refresh tokens do not
		_, err = ts.IssueRefresh(auth.SubjectClaims{Subject: subject.Subject})
		assert.NoError(t, err)
	})

	t.Run("subject is always required", func(t *testing.T) {
		_, err := ts.IssueRefresh(auth.SubjectClaims{})
		assert.Error(t, err)
	})
}

func TestTokenVerifyFailures(t *testing.T) {
	ts := mustTokenService(t, time.Minute, time.Hour, "cleanstreak")
	version := 0
	subject := auth.SubjectClaims{Subject: "subject-1", Version: &version}

	t.Run("empty token", func(t *testing.T) {
		_, err := ts.VerifyAccess("")
		assert.Equal(t, auth.TextCodeNoToken, textCodeOf(t, err))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := ts.VerifyAccess("not.a.jwt")
		assert.Equal(t, auth.TextCodeTokenMalformed, textCodeOf(t, err))
	})

	t.Run("tampered signature", func(t *testing.T) {
		issued, err := ts.IssueAccess(subject)
		require.NoError(t, err)

		tampered := issued.Token[:len(issued.Token)-2] + "xx"
		_, err = ts.VerifyAccess(tampered)
		assert.Equal(t, auth.TextCodeTokenMalformed, textCodeOf(t, err))
	})

	t.Run("expired token", func(t *testing.T) {
		short := mustTokenService(t, time.Millisecond, time.Hour, "cleanstreak")
		issued, err := short.IssueAccess(subject)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = short.VerifyAccess(issued.Token)
		assert.Equal(t, auth.TextCodeTokenExpired, textCodeOf(t, err))
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		other := mustTokenService(t, time.Minute, time.Hour, "someone-else")
		issued, err := other.IssueAccess(subject)
		require.NoError(t, err)

		// same keys, wrong iss claim
		_, err = ts.VerifyAccess(issued.Token)
		assert.Equal(t, auth.TextCodeTokenMalformed, textCodeOf(t, err))
	})

	t.Run("cross key verification fails before the kind check", func(t *testing.T) {
		issued, err := ts.IssueAccess(subject)
		require.NoError(t, err)

		// an access token presented as a refresh token fails the refresh
		// key's signature check, it never reaches the discriminator
		_, err = ts.VerifyRefresh(issued.Token)
		assert.Equal(t, auth.TextCodeTokenMalformed, textCodeOf(t, err))
	})

	t.Run("kind discriminator rejects a validly signed token", func(t *testing.T) {
		// a second service whose access key is our refresh key: its
		// signature check passes, so only the kind discriminator stands
		// between a refresh token and an access-only endpoint
		crossed, err := auth.NewTokenService(testRefreshKey, []byte("third-key"), time.Minute, time.Hour, "cleanstreak", nil)
		require.NoError(t, err)

		issued, err := ts.IssueRefresh(subject)
		require.NoError(t, err)

		_, err = crossed.VerifyAccess(issued.Token)
		assert.Equal(t, auth.TextCodeTokenWrongType, textCodeOf(t, err))
	})
}

func TestDecodeUnsafe(t *testing.T) {
	ts := mustTokenService(t, time.Minute, time.Hour, "cleanstreak")
	version := 1
	subject := auth.SubjectClaims{Subject: "subject-1", Email: "a@b.c", Version: &version}

	t.Run("decodes without verifying the signature", func(t *testing.T) {
		issued, err := ts.IssueAccess(subject)
		require.NoError(t, err)

		tampered := issued.Token[:len(issued.Token)-2] + "xx"
		claims := ts.DecodeUnsafe(tampered)
		require.NotNil(t, claims)
		assert.Equal(t, "subject-1", claims.Subject())
		assert.Equal(t, auth.TokenKindAccess, claims.Kind())
	})

	t.Run("structural failures return nil", func(t *testing.T) {
		assert.Nil(t, ts.DecodeUnsafe(""))
		assert.Nil(t, ts.DecodeUnsafe("garbage"))
	})
}

func TestTokenErrorKind(t *testing.T) {
	ts := mustTokenService(t, time.Minute, time.Hour, "cleanstreak")

	_, errNoToken := ts.VerifyAccess("")
	_, errGarbage := ts.VerifyAccess("junk")

	assert.Equal(t, "", auth.TokenErrorKind(nil))
	assert.Equal(t, "no-token", auth.TokenErrorKind(errNoToken))
	assert.Equal(t, "invalid", auth.TokenErrorKind(errGarbage))
	assert.Equal(t, "expired", auth.TokenErrorKind(auth.ErrTokenExpired))
	assert.Equal(t, "wrong-type", auth.TokenErrorKind(auth.ErrTokenWrongType))
	assert.Equal(t, "not-yet-valid", auth.TokenErrorKind(auth.ErrTokenNotYetValid))
}
