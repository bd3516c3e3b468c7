package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"apptbook/internal/database"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	calls []models.NotificationTask
	err   error
}

func (s *stubSender) Send(ctx context.Context, task *models.NotificationTask) error {
	s.calls = append(s.calls, *task)
	return s.err
}

func setupWorker(t *testing.T, sender *stubSender, retry RetryPolicy) (*NotifyWorker, *database.DB) {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewNotifyWorker(db, sender, retry, &logger), db
}

func TestEnqueuePersistsAndWakes(t *testing.T) {
	sender := &stubSender{}
	w, db := setupWorker(t, sender, RetryPolicy{})
	ctx := context.Background()

	task := &models.NotificationTask{
		Type:      models.NotifyAppointment,
		Recipient: "alice@example.com",
		Name:      "Alice",
		Date:      "2025-11-04",
		Time:      "10:00",
	}
	require.NoError(t, w.EnqueueNotification(ctx, task))
	assert.NotZero(t, task.ID)
	assert.Equal(t, models.TaskStatusPending, task.Status)

	select {
	case <-w.wake:
	default:
		t.Fatal("expected a wake signal after enqueue")
	}

	pending, err := db.PendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDrainMarksDone(t *testing.T) {
	sender := &stubSender{}
	w, db := setupWorker(t, sender, RetryPolicy{})
	ctx := context.Background()

	require.NoError(t, w.EnqueueNotification(ctx, &models.NotificationTask{
		Type: models.NotifyAppointment, Recipient: "alice@example.com",
	}))

	n, err := w.drainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, sender.calls, 1)

	pending, err := db.PendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFailureSchedulesRetry(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	w, db := setupWorker(t, sender, RetryPolicy{MaxRetries: 3, InitialDelay: time.Minute})
	ctx := context.Background()

	require.NoError(t, w.EnqueueNotification(ctx, &models.NotificationTask{
		Type: models.NotifyAppointment, Recipient: "alice@example.com",
	}))

	n, err := w.drainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Retry scheduled in the future, so nothing is due right now.
	pending, err := db.PendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	sender := &stubSender{err: errors.New("smtp down")}
	w, db := setupWorker(t, sender, RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond})
	ctx := context.Background()

	require.NoError(t, w.EnqueueNotification(ctx, &models.NotificationTask{
		Type: models.NotifyAppointment, Recipient: "alice@example.com",
	}))

	n, err := w.drainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, sender.calls, 1)

	// Task is terminal: neither pending nor retried on the next pass.
	pending, err := db.PendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = w.drainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, sender.calls, 1)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	sender := &stubSender{}
	w, _ := setupWorker(t, sender, RetryPolicy{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, p.NextDelay(1))
	assert.Equal(t, 2*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(3))
	assert.Equal(t, 5*time.Second, p.NextDelay(4), "clamped to MaxDelay")
	assert.Equal(t, time.Second, p.NextDelay(0), "attempt floor")
}
