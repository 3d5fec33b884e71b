package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
)

var _ adapter.TelegramSender = (*BotSender)(nil)

// BotSender delivers plain-text messages through the Bot API, paced to stay
// under Telegram's global send limit.
type BotSender struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	log     *zerolog.Logger
}

// NewBotSender authenticates the token (getMe) and returns a sender allowing
// perSecond messages per second.
func NewBotSender(token string, perSecond float64, logger *zerolog.Logger) (*BotSender, error) {
	return NewBotSenderWithEndpoint(token, tgbotapi.APIEndpoint, perSecond, logger)
}

// NewBotSenderWithEndpoint is NewBotSender against a custom API endpoint of the
// form "https://host/bot%s/%s".
func NewBotSenderWithEndpoint(token, endpoint string, perSecond float64, logger *zerolog.Logger) (*BotSender, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, err
	}
	if perSecond <= 0 {
		perSecond = 25
	}
	l := logger.With().Str("component", "telegram").Str("bot", bot.Self.UserName).Logger()
	return &BotSender{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		log:     &l,
	}, nil
}

func (b *BotSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return err
	}
	return nil
}
