package repository

import (
	"context"
	"testing"
	"time"

	"apptbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	session := &models.Session{Token: "tok-1", UserID: 1, Role: models.RoleCustomer}
	require.NoError(t, repo.PutSession(ctx, session))

	got, err := repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.UserID)

	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))
	got, err = repo.GetSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemorySessionRepositoryExpiry(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	session := &models.Session{
		Token:     "tok-exp",
		UserID:    2,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.PutSession(ctx, session))

	got, err := repo.GetSession(ctx, "tok-exp")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry must not come back")
}

func TestMemoryRateLimit(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "login:bob", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, err := repo.CheckRateLimit(ctx, "login:bob", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
