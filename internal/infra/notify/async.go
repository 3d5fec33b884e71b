package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/worker"
)

var _ adapter.RedemptionNotifier = (*AsyncNotifier)(nil)

// Submitter is the part of worker.Pool the async notifier needs.
type Submitter interface {
	Submit(task worker.Task) error
}

// AsyncNotifier hands notices to a worker pool so the redemption path never
// waits on the transport. A full queue drops the notice.
type AsyncNotifier struct {
	inner   adapter.RedemptionNotifier
	pool    Submitter
	timeout time.Duration
	log     *zerolog.Logger
}

func NewAsyncNotifier(inner adapter.RedemptionNotifier, pool Submitter, timeout time.Duration, logger *zerolog.Logger) *AsyncNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	l := logger.With().Str("component", "AsyncNotifier").Logger()
	return &AsyncNotifier{inner: inner, pool: pool, timeout: timeout, log: &l}
}

// NotifyRedeemed returns once the notice is queued. The request context is not
// carried into the task: the notice must outlive the HTTP request.
func (a *AsyncNotifier) NotifyRedeemed(_ context.Context, plan *model.DiscountPlan, rec *model.Redemption) error {
	p, r := *plan, *rec
	return a.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.inner.NotifyRedeemed(ctx, &p, &r); err != nil {
			a.log.Warn().Err(err).Str("redemption_id", r.ID).Msg("redemption notice failed")
			return err
		}
		return nil
	})
}

// Noop discards notices.
type Noop struct{}

func (Noop) NotifyRedeemed(context.Context, *model.DiscountPlan, *model.Redemption) error { return nil }
