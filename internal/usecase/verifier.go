// File: internal/usecase/verifier.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/usecase"
)

var _ usecase.PlanVerifier = (*PinVerifier)(nil)

// PinVerifier checks a PIN against the current plan registry. Results are
// never cached: plans can be revoked between calls.
type PinVerifier struct {
	plans repository.PlanRegistry
	clock adapter.Clock
	log   *zerolog.Logger
}

func NewPinVerifier(plans repository.PlanRegistry, clock adapter.Clock, logger *zerolog.Logger) *PinVerifier {
	l := logger.With().Str("component", "PinVerifier").Logger()
	return &PinVerifier{plans: plans, clock: clock, log: &l}
}

// Verify normalizes pin and resolves it. Business failures come back in
// PinCheck.Failure; only registry faults are returned as errors.
func (v *PinVerifier) Verify(ctx context.Context, pin string) (*model.PinCheck, error) {
	norm := model.NormalizePin(pin)
	check := &model.PinCheck{Pin: norm}
	if !model.ValidPinFormat(norm) {
		check.Failure = model.FailureNotFound
		return check, nil
	}

	plans, err := v.plans.FindByPin(ctx, repository.NoTX, norm)
	if err != nil {
		return nil, fmt.Errorf("find plan by pin: %w", err)
	}
	switch len(plans) {
	case 0:
		check.Failure = model.FailureNotFound
		return check, nil
	case 1:
	default:
		ids := make([]string, 0, len(plans))
		for _, p := range plans {
			ids = append(ids, p.ID)
		}
		v.log.Error().Int("matches", len(plans)).Strs("plan_ids", ids).Str("pin", model.MaskPin(norm)).
			Msg("pin matches more than one plan; refusing to choose")
		check.Failure = model.FailureNotFound
		return check, nil
	}

	plan := plans[0]
	check.Plan = plan
	switch {
	case !plan.IsActive || !plan.PlanType.GrantsDiscount():
		check.Failure = model.FailureInactive
	case plan.ExpiredAt(v.clock.Now()):
		check.Failure = model.FailureExpired
	}
	return check, nil
}
