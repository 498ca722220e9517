package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"campreg/internal/admin"
	"campreg/internal/registration/models"
)

// Telegram pings the assigned reviewer's Telegram chat.
type Telegram struct {
	bot    *bot.Bot
	logger *slog.Logger
}

func NewTelegram(token string, logger *slog.Logger) (*Telegram, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{bot: b, logger: logger}, nil
}

func (t *Telegram) PaymentCheckReceived(ctx context.Context, reviewer admin.Admin, reg models.Registration) error {
	if reviewer.TelegramChatID == 0 {
		return nil // reviewer has no chat linked
	}
	text := fmt.Sprintf(
		"Новый чек на проверку\nУчастник: %s %s\nРегистрация: %s",
		reg.FirstName, reg.LastName, reg.ID,
	)
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: reviewer.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}
