package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSessionRepo struct{}

func (f *failingSessionRepo) GetSession(ctx context.Context, token string) (*models.Session, error) {
	return nil, errors.New("redis down")
}

func (f *failingSessionRepo) PutSession(ctx context.Context, session *models.Session) error {
	return errors.New("redis down")
}

func (f *failingSessionRepo) DeleteSession(ctx context.Context, token string) error {
	return errors.New("redis down")
}

func (f *failingSessionRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestFailoverFallsBackToMemory(t *testing.T) {
	logger := zerolog.Nop()
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(&failingSessionRepo{}, fallback, &logger)
	ctx := context.Background()

	session := &models.Session{Token: "tok-f", UserID: 5}
	require.NoError(t, repo.PutSession(ctx, session))

	got, err := repo.GetSession(ctx, "tok-f")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.UserID)

	require.NoError(t, repo.DeleteSession(ctx, "tok-f"))
	got, err = repo.GetSession(ctx, "tok-f")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	logger := zerolog.Nop()
	primary := NewMemorySessionRepository(time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, &logger)
	ctx := context.Background()

	require.NoError(t, repo.PutSession(ctx, &models.Session{Token: "tok-p", UserID: 6}))

	// The record landed on the primary, not the fallback.
	got, err := primary.GetSession(ctx, "tok-p")
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = fallback.GetSession(ctx, "tok-p")
	require.NoError(t, err)
	assert.Nil(t, got)
}
