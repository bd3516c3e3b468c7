package notify

import (
	"context"
	"errors"
	"testing"

	"apptbook/internal/domain"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeEmail(t *testing.T) {
	task := &models.NotificationTask{
		Type: models.NotifyAppointment,
		Name: "Alice",
		Date: "2025-11-04",
		Time: "10:00",
	}
	subject, body := composeEmail(task)
	assert.Contains(t, subject, "confirmed")
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "2025-11-04")
	assert.Contains(t, body, "10:00")

	task.Type = models.NotifyCancel
	subject, body = composeEmail(task)
	assert.Contains(t, subject, "canceled")
	assert.Contains(t, body, "canceled")
}

func TestComposeEmailFallbackName(t *testing.T) {
	_, body := composeEmail(&models.NotificationTask{Type: models.NotifyAppointment, Date: "d", Time: "t"})
	assert.Contains(t, body, "Hi there")
}

func TestStubSenderAlwaysSucceeds(t *testing.T) {
	logger := zerolog.Nop()
	s := NewStubSender(&logger)
	err := s.Send(context.Background(), &models.NotificationTask{Type: models.NotifyAppointment})
	require.NoError(t, err)
}

type recordingSender struct {
	calls int
	err   error
}

func (r *recordingSender) Send(ctx context.Context, task *models.NotificationTask) error {
	r.calls++
	return r.err
}

func TestMultiAttemptsAllChannels(t *testing.T) {
	failing := &recordingSender{err: errors.New("boom")}
	ok := &recordingSender{}
	m := &Multi{Senders: []domain.Sender{failing, ok}}

	err := m.Send(context.Background(), &models.NotificationTask{})
	assert.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls, "later channels still attempted after a failure")
}

func TestSendGridSenderRequiresKey(t *testing.T) {
	var s *SendGridSender
	assert.Error(t, s.Send(context.Background(), &models.NotificationTask{}))
}
