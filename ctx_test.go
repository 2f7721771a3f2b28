package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/skline4552/CleanStreak-Simplified-sub001"
)

func TestUserContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		user := &auth.User{ID: uuid.New(), Email: "user@example.com"}

		ctx := auth.WithContext(context.Background(), user)
		got, ok := auth.FromContext(ctx)

		require.True(t, ok)
		assert.Equal(t, user, got)
	})

	t.Run("absent user", func(t *testing.T) {
		got, ok := auth.FromContext(context.Background())

		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestClaimsContext(t *testing.T) {
	ts := mustTokenService(t, 0, 0, "cleanstreak")
	version := 0
	issued, err := ts.IssueAccess(auth.SubjectClaims{Subject: "subject-1", Version: &version})
	require.NoError(t, err)

	claims, err := ts.VerifyAccess(issued.Token)
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		ctx := auth.WithClaimsContext(context.Background(), claims)
		got, ok := auth.GetClaims(ctx)

		require.True(t, ok)
		assert.Equal(t, "subject-1", got.Subject())
	})

	t.Run("absent claims", func(t *testing.T) {
		got, ok := auth.GetClaims(context.Background())

		assert.False(t, ok)
		assert.Nil(t, got)
	})
}
