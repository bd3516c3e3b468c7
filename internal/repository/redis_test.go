package repository

import (
	"context"
	"testing"
	"time"

	"apptbook/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("PutAndGetSession", func(t *testing.T) {
		session := &models.Session{
			Token:     "tok-123",
			UserID:    42,
			Email:     "alice@example.com",
			Name:      "Alice",
			Role:      models.RoleCustomer,
			ExpiresAt: time.Now().Add(time.Hour),
		}

		require.NoError(t, repo.PutSession(ctx, session))

		got, err := repo.GetSession(ctx, "tok-123")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(42), got.UserID)
		assert.Equal(t, models.RoleCustomer, got.Role)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "tok-missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		session := &models.Session{Token: "tok-del", UserID: 7}
		require.NoError(t, repo.PutSession(ctx, session))
		require.NoError(t, repo.DeleteSession(ctx, "tok-del"))

		got, err := repo.GetSession(ctx, "tok-del")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("SessionExpiresWithTTL", func(t *testing.T) {
		session := &models.Session{
			Token:     "tok-ttl",
			UserID:    9,
			ExpiresAt: time.Now().Add(time.Minute),
		}
		require.NoError(t, repo.PutSession(ctx, session))

		s.FastForward(2 * time.Minute)

		got, err := repo.GetSession(ctx, "tok-ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CheckRateLimit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, "login:alice", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, "login:alice", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

func TestRedisSessionRepositoryNilClient(t *testing.T) {
	repo := NewRedisSessionRepository(nil, time.Hour)
	ctx := context.Background()

	_, err := repo.GetSession(ctx, "tok")
	assert.Error(t, err)
	assert.Error(t, repo.PutSession(ctx, &models.Session{Token: "tok"}))
	assert.Error(t, repo.DeleteSession(ctx, "tok"))
}
