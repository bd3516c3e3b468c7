package notify

import (
	"context"
	"fmt"

	"apptbook/internal/config"
	"apptbook/internal/metrics"
	"apptbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers appointment confirmations and cancellation
// notices to the customer. Delivery is best-effort: callers must never let
// a send failure affect the booking itself.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       zerolog.Logger
}

func NewSendGridSender(cfg config.EmailConfig, logger *zerolog.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.FromName == "" {
		cfg.FromName = "Appointment Desk"
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "email").Logger()
	}

	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log,
	}
}

func (s *SendGridSender) Send(ctx context.Context, task *models.NotificationTask) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	subject, body := composeEmail(task)

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(task.Name, task.Recipient)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		metrics.IncNotification("email", "error")
		s.log.Error().Err(err).Str("to", task.Recipient).Msg("sendgrid send failed")
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		metrics.IncNotification("email", "error")
		s.log.Error().Int("status", response.StatusCode).Str("to", task.Recipient).Msg("sendgrid returned error status")
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	metrics.IncNotification("email", "ok")
	s.log.Info().Str("to", task.Recipient).Str("type", task.Type).Msg("email sent")
	return nil
}

func composeEmail(task *models.NotificationTask) (subject, body string) {
	name := task.Name
	if name == "" {
		name = "there"
	}

	switch task.Type {
	case models.NotifyCancel:
		subject = fmt.Sprintf("Appointment canceled: %s at %s", task.Date, task.Time)
		body = fmt.Sprintf("Hi %s,\n\nYour appointment on %s at %s has been canceled.\n\nIf this wasn't you, please contact us.",
			name, task.Date, task.Time)
	default:
		subject = fmt.Sprintf("Appointment confirmed: %s at %s", task.Date, task.Time)
		body = fmt.Sprintf("Hi %s,\n\nYour appointment is confirmed for %s at %s.\n\nSee you then!",
			name, task.Date, task.Time)
	}
	return subject, body
}
