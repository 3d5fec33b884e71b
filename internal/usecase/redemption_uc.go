// File: internal/usecase/redemption_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/usecase"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

const (
	codeAttempts = 3
	statsWindow  = 1000
)

// RedemptionUseCase is the single entry point for applying plan discounts
// and reading the redemption ledger.
type RedemptionUseCase interface {
	Redeem(ctx context.Context, in RedeemInput) (*RedeemResult, error)
	Validate(ctx context.Context, pin string) (*ValidateResult, error)
	GetByVerificationCode(ctx context.Context, code string) (*model.Redemption, error)
	OwnerHistory(ctx context.Context, ownerID string, limit int) ([]*model.Redemption, error)
	ProviderHistory(ctx context.Context, providerID string, limit int) ([]*model.Redemption, error)
	OwnerStats(ctx context.Context, ownerID string) (*model.UsageStats, error)
}

// RedemptionOptions tunes ledger behavior.
type RedemptionOptions struct {
	Currency        string
	RecordFailures  bool
	HistoryLimit    int
	MaxHistoryLimit int
	Dev             bool
}

type redemptionUC struct {
	verifier usecase.PlanVerifier
	ledger   repository.RedemptionLedger
	tm       repository.TransactionManager
	notifier adapter.RedemptionNotifier
	clock    adapter.Clock
	valid    *validator.Validate
	opts     RedemptionOptions
	log      *zerolog.Logger
}

func NewRedemptionUseCase(
	verifier usecase.PlanVerifier,
	ledger repository.RedemptionLedger,
	tm repository.TransactionManager,
	notifier adapter.RedemptionNotifier,
	clock adapter.Clock,
	opts RedemptionOptions,
	logger *zerolog.Logger,
) *redemptionUC {
	if opts.Currency == "" {
		opts.Currency = "EGP"
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.MaxHistoryLimit < opts.HistoryLimit {
		opts.MaxHistoryLimit = opts.HistoryLimit
	}
	l := logger.With().Str("component", "RedemptionUC").Logger()
	return &redemptionUC{
		verifier: verifier,
		ledger:   ledger,
		tm:       tm,
		notifier: notifier,
		clock:    clock,
		valid:    newValidator(),
		opts:     opts,
		log:      &l,
	}
}

// Redeem verifies the PIN, checks the monthly cap, computes the discount and
// records it. Business outcomes are reported in RedeemResult; a non-nil error
// means the request was malformed (*ValidationError) or a store failed.
func (uc *redemptionUC) Redeem(ctx context.Context, in RedeemInput) (res *RedeemResult, err error) {
	defer logging.TraceDuration(uc.log, "RedemptionUC.Redeem")()
	start := time.Now()
	log := logging.With(ctx, uc.log)
	defer func() {
		outcome := "error"
		switch {
		case res != nil && res.Success:
			outcome = "success"
		case res != nil:
			outcome = string(res.Error)
		}
		metrics.ObserveRedemption(outcome, time.Since(start))
	}()

	if err := checkStruct(uc.valid, in); err != nil {
		return nil, err
	}
	if !model.ValidAmount(in.OriginalAmount) {
		return failed(model.FailureInvalidAmount), nil
	}

	check, err := uc.verifier.Verify(ctx, in.Pin)
	if err != nil {
		return nil, err
	}
	if !check.Valid() {
		log.Info().Str("pin", logging.RedactPin(check.Pin, uc.opts.Dev)).Str("reason", string(check.Failure)).
			Str("owner_hint", in.PlanOwnerHint).Msg("pin rejected")
		if check.Plan != nil {
			uc.recordFailure(ctx, log, check.Plan, check.Pin, in, check.Failure)
		}
		return failed(check.Failure), nil
	}
	plan := check.Plan

	now := uc.clock.Now()
	month := model.MonthYear(now)
	used, err := uc.ledger.CountSuccessful(ctx, repository.NoTX, plan.OwnerID, month)
	if err != nil {
		return nil, fmt.Errorf("count redemptions: %w", err)
	}
	if used >= plan.MaxUsagesPerMonth {
		return uc.capExceeded(ctx, log, plan, check.Pin, in, used), nil
	}

	d, err := model.CalculateDiscount(in.OriginalAmount, plan.DiscountPercentage)
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return failed(model.FailureInvalidAmount), nil
	case errors.Is(err, domain.ErrInvalidPercent):
		log.Error().Str("plan_id", plan.ID).Int("percent", plan.DiscountPercentage).Msg("plan carries an out-of-range discount")
		return failed(model.FailureInvalidPercent), nil
	case err != nil:
		return nil, err
	}

	rec := &model.Redemption{
		ID:              ulid.Make().String(),
		PlanID:          plan.ID,
		PlanOwnerID:     plan.OwnerID,
		PinUsed:         check.Pin,
		VerifiedBy:      in.ProviderID,
		OriginalAmount:  d.OriginalAmount,
		DiscountAmount:  d.DiscountAmount,
		FinalAmount:     d.FinalAmount,
		DiscountPercent: d.DiscountPercent,
		Currency:        uc.opts.Currency,
		MonthYear:       month,
		Status:          model.RedemptionStatusSuccess,
		Metadata:        in.Metadata,
		VerifiedAt:      now,
	}

	used, inserted, err := uc.insertSuccess(ctx, rec, plan.MaxUsagesPerMonth)
	if err != nil {
		return nil, fmt.Errorf("record redemption: %w", err)
	}
	if !inserted {
		// Lost the race for the last slot.
		return uc.capExceeded(ctx, log, plan, check.Pin, in, used), nil
	}

	usage := model.NewUsage(used, plan.MaxUsagesPerMonth)
	log.Info().Str("redemption_id", rec.ID).Str("plan_owner_id", plan.OwnerID).
		Str("discount", rec.DiscountAmount.StringFixed(2)).Int("used", usage.Used).Msg("redemption recorded")
	metrics.AddDiscountGranted(rec.Currency, rec.DiscountAmount.InexactFloat64())

	if uc.notifier != nil {
		if err := uc.notifier.NotifyRedeemed(ctx, plan, rec); err != nil {
			log.Warn().Err(err).Str("redemption_id", rec.ID).Msg("redemption notice not dispatched")
		}
	}

	return &RedeemResult{
		Success: true,
		Verification: &Verification{
			Code:             check.Pin,
			VerificationCode: rec.VerificationCode,
			RedemptionID:     rec.ID,
			OriginalAmount:   rec.OriginalAmount,
			DiscountAmount:   rec.DiscountAmount,
			DiscountPercent:  rec.DiscountPercent,
			FinalAmount:      rec.FinalAmount,
			Currency:         rec.Currency,
			PlanOwner:        plan.Owner(),
			VerifiedAt:       rec.VerifiedAt,
			Usage:            usage,
		},
	}, nil
}

// insertSuccess runs the atomic cap check and insert, drawing a fresh
// verification code when the previous one collided. used is the bucket count
// observed under the cap lock.
func (uc *redemptionUC) insertSuccess(ctx context.Context, rec *model.Redemption, limit int) (int, bool, error) {
	var lastErr error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := model.GenerateVerificationCode()
		if err != nil {
			return 0, false, err
		}
		rec.VerificationCode = code

		var (
			used     int
			inserted bool
		)
		err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			n, ok, err := uc.ledger.InsertSuccessAtomic(ctx, tx, rec, limit)
			used, inserted = n, ok
			return err
		})
		if err == nil {
			return used, inserted, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return 0, false, err
		}
		lastErr = err
	}
	return 0, false, lastErr
}

func (uc *redemptionUC) capExceeded(ctx context.Context, log *zerolog.Logger, plan *model.DiscountPlan, pin string, in RedeemInput, used int) *RedeemResult {
	usage := model.NewUsage(used, plan.MaxUsagesPerMonth)
	log.Info().Str("plan_owner_id", plan.OwnerID).Int("used", used).Int("limit", usage.Limit).Msg("monthly cap reached")
	uc.recordFailure(ctx, log, plan, pin, in, model.FailureCapExceeded)
	res := failed(model.FailureCapExceeded)
	res.Usage = &usage
	return res
}

// recordFailure appends a FAILED entry for an identified plan. It is best
// effort: the caller already has its answer.
func (uc *redemptionUC) recordFailure(ctx context.Context, log *zerolog.Logger, plan *model.DiscountPlan, pin string, in RedeemInput, reason model.FailureCode) {
	if !uc.opts.RecordFailures {
		return
	}
	code, err := model.GenerateVerificationCode()
	if err != nil {
		log.Warn().Err(err).Msg("failure entry skipped")
		return
	}
	amount := in.OriginalAmount.Round(2)
	now := uc.clock.Now()
	rec := &model.Redemption{
		ID:               ulid.Make().String(),
		PlanID:           plan.ID,
		PlanOwnerID:      plan.OwnerID,
		VerificationCode: code,
		PinUsed:          pin,
		VerifiedBy:       in.ProviderID,
		OriginalAmount:   amount,
		DiscountAmount:   decimal.Zero,
		FinalAmount:      amount,
		Currency:         uc.opts.Currency,
		MonthYear:        model.MonthYear(now),
		Status:           model.RedemptionStatusFailed,
		FailureReason:    reason,
		Metadata:         in.Metadata,
		VerifiedAt:       now,
	}
	if err := uc.ledger.InsertFailed(ctx, repository.NoTX, rec); err != nil {
		log.Warn().Err(err).Str("reason", string(reason)).Msg("failure entry not recorded")
	}
}

// Validate previews what Redeem would decide for pin, without an amount and
// without writing.
func (uc *redemptionUC) Validate(ctx context.Context, pin string) (*ValidateResult, error) {
	defer logging.TraceDuration(uc.log, "RedemptionUC.Validate")()

	check, err := uc.verifier.Verify(ctx, pin)
	if err != nil {
		return nil, err
	}
	if !check.Valid() {
		return &ValidateResult{Error: check.Failure}, nil
	}
	plan := check.Plan
	used, err := uc.ledger.CountSuccessful(ctx, repository.NoTX, plan.OwnerID, model.MonthYear(uc.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("count redemptions: %w", err)
	}
	usage := model.NewUsage(used, plan.MaxUsagesPerMonth)
	owner := plan.Owner()
	expires := plan.ExpiresAt
	res := &ValidateResult{
		Valid:           true,
		PlanOwner:       &owner,
		PlanType:        plan.PlanType,
		DiscountPercent: plan.DiscountPercentage,
		ExpiresAt:       &expires,
		Usage:           &usage,
	}
	if usage.Remaining == 0 {
		res.Valid = false
		res.Error = model.FailureCapExceeded
	}
	return res, nil
}

func (uc *redemptionUC) GetByVerificationCode(ctx context.Context, code string) (*model.Redemption, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrNotFound
	}
	rec, err := uc.ledger.FindByVerificationCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, err
	}
	return masked(rec), nil
}

func (uc *redemptionUC) OwnerHistory(ctx context.Context, ownerID string, limit int) ([]*model.Redemption, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	recs, err := uc.ledger.ListByOwner(ctx, repository.NoTX, ownerID, uc.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("owner history: %w", err)
	}
	out := maskAll(recs)
	// Owners see where their PIN was used, not which provider account used it.
	for _, r := range out {
		r.VerifiedBy = ""
	}
	return out, nil
}

func (uc *redemptionUC) ProviderHistory(ctx context.Context, providerID string, limit int) ([]*model.Redemption, error) {
	if providerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	recs, err := uc.ledger.ListByProvider(ctx, repository.NoTX, providerID, uc.clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("provider history: %w", err)
	}
	return maskAll(recs), nil
}

func (uc *redemptionUC) OwnerStats(ctx context.Context, ownerID string) (*model.UsageStats, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidArgument
	}
	recs, err := uc.ledger.ListByOwner(ctx, repository.NoTX, ownerID, statsWindow)
	if err != nil {
		return nil, fmt.Errorf("owner stats: %w", err)
	}
	stats := model.SummarizeUsage(recs, model.MonthYear(uc.clock.Now()))
	return &stats, nil
}

func (uc *redemptionUC) clampLimit(limit int) int {
	if limit <= 0 {
		return uc.opts.HistoryLimit
	}
	if limit > uc.opts.MaxHistoryLimit {
		return uc.opts.MaxHistoryLimit
	}
	return limit
}

func masked(rec *model.Redemption) *model.Redemption {
	cp := *rec
	cp.PinUsed = model.MaskPin(rec.PinUsed)
	return &cp
}

func maskAll(recs []*model.Redemption) []*model.Redemption {
	out := make([]*model.Redemption, 0, len(recs))
	for _, r := range recs {
		out = append(out, masked(r))
	}
	return out
}
