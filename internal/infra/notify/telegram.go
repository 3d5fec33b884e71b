// Package notify delivers redemption notices to plan owners.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

var _ adapter.RedemptionNotifier = (*TelegramNotifier)(nil)

// Translator renders localized message keys.
type Translator interface {
	T(key string, args ...interface{}) string
}

// TelegramNotifier messages the owner's linked chat. Owners without a chat are
// skipped silently.
type TelegramNotifier struct {
	sender adapter.TelegramSender
	tr     Translator
	log    *zerolog.Logger
}

func NewTelegramNotifier(sender adapter.TelegramSender, tr Translator, logger *zerolog.Logger) *TelegramNotifier {
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{sender: sender, tr: tr, log: &l}
}

func (n *TelegramNotifier) NotifyRedeemed(ctx context.Context, plan *model.DiscountPlan, rec *model.Redemption) error {
	if plan == nil || plan.OwnerChatID == nil {
		metrics.IncNotification("telegram", "skipped")
		return nil
	}
	if err := n.sender.SendMessage(ctx, *plan.OwnerChatID, RedemptionText(n.tr, rec)); err != nil {
		metrics.IncNotification("telegram", "failed")
		return fmt.Errorf("send redemption notice: %w", err)
	}
	metrics.IncNotification("telegram", "sent")
	n.log.Debug().Str("redemption_id", rec.ID).Str("plan_owner_id", plan.OwnerID).Msg("redemption notice sent")
	return nil
}

// RedemptionText renders the owner-facing notice. The PIN is masked.
func RedemptionText(tr Translator, rec *model.Redemption) string {
	lines := []string{
		tr.T("redemption.title", model.MaskPin(rec.PinUsed)),
		tr.T("redemption.amount", rec.OriginalAmount.StringFixed(2), rec.Currency),
		tr.T("redemption.discount", rec.DiscountPercent, rec.DiscountAmount.StringFixed(2), rec.Currency),
		tr.T("redemption.paid", rec.FinalAmount.StringFixed(2), rec.Currency),
	}
	if rec.Metadata.Location != "" {
		lines = append(lines, tr.T("redemption.location", rec.Metadata.Location))
	}
	lines = append(lines, tr.T("redemption.code", rec.VerificationCode))
	return strings.Join(lines, "\n")
}
