package adapter

import (
	"context"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// RedemptionNotifier tells a plan owner that their PIN was just used.
// Implementations must not block the redemption path for long; slow
// transports are wrapped in an async dispatcher.
type RedemptionNotifier interface {
	NotifyRedeemed(ctx context.Context, plan *model.DiscountPlan, rec *model.Redemption) error
}

// TelegramSender is the minimal Telegram capability the notifier needs.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
