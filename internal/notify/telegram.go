package notify

import (
	"context"
	"fmt"

	"apptbook/internal/config"
	"apptbook/internal/metrics"
	"apptbook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender mirrors booking activity into a staff chat so employees
// see new appointments and cancellations without watching the dashboard.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

func NewTelegramSender(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram init: %w", err)
	}
	bot.Debug = cfg.Debug

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "telegram").Logger()
	}

	return &TelegramSender{bot: bot, chatID: cfg.ChatID, log: log}, nil
}

func (s *TelegramSender) Send(ctx context.Context, task *models.NotificationTask) error {
	if s == nil || s.bot == nil {
		return fmt.Errorf("notify: telegram bot not configured")
	}

	var text string
	switch task.Type {
	case models.NotifyCancel:
		text = fmt.Sprintf("❌ Canceled: %s at %s (%s)", task.Date, task.Time, task.Recipient)
	default:
		text = fmt.Sprintf("📅 New appointment: %s at %s (%s)", task.Date, task.Time, task.Recipient)
	}

	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		metrics.IncNotification("telegram", "error")
		s.log.Error().Err(err).Msg("telegram send failed")
		return fmt.Errorf("notify: telegram send failed: %w", err)
	}

	metrics.IncNotification("telegram", "ok")
	return nil
}
