package repository

import (
	"context"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// RedemptionLedger is the append-only store of redemption attempts.
type RedemptionLedger interface {
	// CountSuccessful counts SUCCESS entries of a plan owner in a month bucket.
	CountSuccessful(ctx context.Context, tx Tx, ownerID, monthYear string) (int, error)

	// InsertSuccessAtomic re-counts SUCCESS entries for (rec.PlanOwnerID, rec.MonthYear)
	// and inserts rec only if the count is still below limit. The check and the
	// insert are linearized per (owner, month) so concurrent callers can never
	// push the count past limit. used is the bucket's SUCCESS count as seen
	// under that lock after the call; inserted is false when the cap was
	// already reached.
	InsertSuccessAtomic(ctx context.Context, tx Tx, rec *model.Redemption, limit int) (used int, inserted bool, err error)

	// InsertFailed appends a FAILED entry. It never affects cap counting.
	InsertFailed(ctx context.Context, tx Tx, rec *model.Redemption) error

	// FindByVerificationCode returns domain.ErrNotFound when no entry matches.
	FindByVerificationCode(ctx context.Context, tx Tx, code string) (*model.Redemption, error)

	// ListByOwner and ListByProvider return the newest entries first.
	ListByOwner(ctx context.Context, tx Tx, ownerID string, limit int) ([]*model.Redemption, error)
	ListByProvider(ctx context.Context, tx Tx, providerID string, limit int) ([]*model.Redemption, error)
}
