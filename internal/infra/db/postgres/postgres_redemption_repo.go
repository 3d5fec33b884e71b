package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fetosat/daleelbalady-sub010/internal/domain"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.RedemptionLedger = (*redemptionRepo)(nil)

type redemptionRepo struct {
	pool *pgxpool.Pool
}

func NewRedemptionRepo(pool *pgxpool.Pool) repository.RedemptionLedger {
	return &redemptionRepo{pool: pool}
}

const redemptionColumns = `
id, plan_id, plan_owner_id, verification_code, pin_used, verified_by,
original_amount::text, discount_amount::text, final_amount::text, discount_percent,
currency, month_year, status, failure_reason,
customer_name, receipt_number, location, service_id, product_id, shop_id, offer_id,
verified_at`

const insertRedemptionSQL = `
INSERT INTO redemptions (
  id, plan_id, plan_owner_id, verification_code, pin_used, verified_by,
  original_amount, discount_amount, final_amount, discount_percent,
  currency, month_year, status, failure_reason,
  customer_name, receipt_number, location, service_id, product_id, shop_id, offer_id,
  verified_at
) VALUES (
  $1, $2, $3, $4, $5, $6,
  $7::numeric, $8::numeric, $9::numeric, $10,
  $11, $12, $13, $14,
  $15, $16, $17, $18, $19, $20, $21,
  $22
);`

// slotKey maps an (owner, month) cap bucket to an advisory lock key.
func slotKey(ownerID, monthYear string) int64 {
	h := fnv.New64a()
	h.Write([]byte(ownerID))
	h.Write([]byte{'|'})
	h.Write([]byte(monthYear))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

func (r *redemptionRepo) CountSuccessful(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error) {
	const q = `
SELECT COUNT(*) FROM redemptions
 WHERE plan_owner_id = $1 AND month_year = $2 AND status = 'SUCCESS';`
	row, err := pickRow(ctx, r.pool, tx, q, ownerID, monthYear)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}

// InsertSuccessAtomic serializes writers of one (owner, month) bucket with a
// transaction-scoped advisory lock, then re-counts and inserts. Without a
// caller transaction it opens its own.
func (r *redemptionRepo) InsertSuccessAtomic(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	if rec == nil || rec.Status != model.RedemptionStatusSuccess {
		return 0, false, domain.ErrInvalidArgument
	}
	if ptx, ok := tx.(pgx.Tx); ok {
		return r.insertSuccessInTx(ctx, ptx, rec, limit)
	}
	if tx != nil {
		return 0, false, domain.ErrInvalidExecContext
	}

	own, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = own.Rollback(ctx) }()
	used, inserted, err := r.insertSuccessInTx(ctx, own, rec, limit)
	if err != nil || !inserted {
		return used, false, err
	}
	if err := own.Commit(ctx); err != nil {
		return 0, false, err
	}
	return used, true, nil
}

func (r *redemptionRepo) insertSuccessInTx(ctx context.Context, tx pgx.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", slotKey(rec.PlanOwnerID, rec.MonthYear)); err != nil {
		return 0, false, fmt.Errorf("lock cap slot: %w", err)
	}
	n, err := r.CountSuccessful(ctx, tx, rec.PlanOwnerID, rec.MonthYear)
	if err != nil {
		return 0, false, err
	}
	if n >= limit {
		return n, false, nil
	}
	if err := r.insert(ctx, tx, rec); err != nil {
		return n, false, err
	}
	return n + 1, true, nil
}

func (r *redemptionRepo) InsertFailed(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	if rec == nil || rec.Status != model.RedemptionStatusFailed {
		return domain.ErrInvalidArgument
	}
	return r.insert(ctx, tx, rec)
}

func (r *redemptionRepo) insert(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	m := rec.Metadata
	_, err := execSQL(ctx, r.pool, tx, insertRedemptionSQL,
		rec.ID, rec.PlanID, rec.PlanOwnerID, rec.VerificationCode, rec.PinUsed, rec.VerifiedBy,
		rec.OriginalAmount.String(), rec.DiscountAmount.String(), rec.FinalAmount.String(), rec.DiscountPercent,
		rec.Currency, rec.MonthYear, string(rec.Status), string(rec.FailureReason),
		m.CustomerName, m.ReceiptNumber, m.Location, m.ServiceID, m.ProductID, m.ShopID, m.OfferID,
		rec.VerifiedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert redemption: %w", err)
	}
	return nil
}

func (r *redemptionRepo) FindByVerificationCode(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE verification_code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	rec, err := scanRedemption(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rec, nil
}

func (r *redemptionRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions
 WHERE plan_owner_id = $1
 ORDER BY verified_at DESC
 LIMIT $2;`
	return r.list(ctx, tx, q, ownerID, limit)
}

func (r *redemptionRepo) ListByProvider(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error) {
	q := `SELECT ` + redemptionColumns + ` FROM redemptions
 WHERE verified_by = $1
 ORDER BY verified_at DESC
 LIMIT $2;`
	return r.list(ctx, tx, q, providerID, limit)
}

func (r *redemptionRepo) list(ctx context.Context, tx repository.Tx, q, key string, limit int) ([]*model.Redemption, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := queryRows(ctx, r.pool, tx, q, key, limit)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Redemption, 0)
	for rows.Next() {
		rec, err := scanRedemption(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate redemptions: %w", err)
	}
	return out, nil
}

func scanRedemption(row pgx.Row) (*model.Redemption, error) {
	var (
		rec                       model.Redemption
		original, discount, final string
		status, reason            string
	)
	m := &rec.Metadata
	err := row.Scan(
		&rec.ID, &rec.PlanID, &rec.PlanOwnerID, &rec.VerificationCode, &rec.PinUsed, &rec.VerifiedBy,
		&original, &discount, &final, &rec.DiscountPercent,
		&rec.Currency, &rec.MonthYear, &status, &reason,
		&m.CustomerName, &m.ReceiptNumber, &m.Location, &m.ServiceID, &m.ProductID, &m.ShopID, &m.OfferID,
		&rec.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.OriginalAmount, err = decimal.NewFromString(original); err != nil {
		return nil, err
	}
	if rec.DiscountAmount, err = decimal.NewFromString(discount); err != nil {
		return nil, err
	}
	if rec.FinalAmount, err = decimal.NewFromString(final); err != nil {
		return nil, err
	}
	rec.Status = model.RedemptionStatus(status)
	rec.FailureReason = model.FailureCode(reason)
	return &rec, nil
}
