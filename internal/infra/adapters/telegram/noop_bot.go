package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
)

var _ adapter.TelegramSender = (*NoopSender)(nil)

// NoopSender logs messages instead of sending them. Used when no bot token is
// configured.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	l := logger.With().Str("component", "noop-telegram").Logger()
	return &NoopSender{log: &l}
}

func (b *NoopSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Debug().Int64("chat_id", chatID).Str("text", text).Msg("message not sent")
	return nil
}
