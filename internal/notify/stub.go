package notify

import (
	"context"

	"apptbook/internal/domain"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
)

// StubSender logs instead of delivering. Used when no channel is
// configured and in tests.
type StubSender struct {
	log zerolog.Logger
}

func NewStubSender(logger *zerolog.Logger) *StubSender {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "notify-stub").Logger()
	}
	return &StubSender{log: log}
}

func (s *StubSender) Send(ctx context.Context, task *models.NotificationTask) error {
	s.log.Info().
		Str("type", task.Type).
		Str("recipient", task.Recipient).
		Str("date", task.Date).
		Str("time", task.Time).
		Msg("notification suppressed (no sender configured)")
	return nil
}

// Multi fans one notification out to several channels. The first error is
// returned after every channel has been attempted.
type Multi struct {
	Senders []domain.Sender
}

func (m *Multi) Send(ctx context.Context, task *models.NotificationTask) error {
	var first error
	for _, s := range m.Senders {
		if err := s.Send(ctx, task); err != nil && first == nil {
			first = err
		}
	}
	return first
}
