package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRegistry = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

// Save upserts a plan. The subscription service owns plans; this exists for
// seeding and tests.
func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.DiscountPlan) error {
	const sql = `
INSERT INTO discount_plans (id, owner_id, pin_code, discount_percentage, plan_type, max_usages_per_month, expires_at, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE
  SET pin_code             = EXCLUDED.pin_code,
      discount_percentage  = EXCLUDED.discount_percentage,
      plan_type            = EXCLUDED.plan_type,
      max_usages_per_month = EXCLUDED.max_usages_per_month,
      expires_at           = EXCLUDED.expires_at,
      is_active            = EXCLUDED.is_active;
`
	_, err := execSQL(ctx, r.pool, tx, sql,
		plan.ID, plan.OwnerID, plan.PinCode, plan.DiscountPercentage, string(plan.PlanType),
		plan.MaxUsagesPerMonth, plan.ExpiresAt, plan.IsActive, plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

// FindByPin returns all plans with the given PIN, joined with their owner.
func (r *PostgresPlanRepo) FindByPin(ctx context.Context, tx repository.Tx, pin string) ([]*model.DiscountPlan, error) {
	const sql = `
SELECT p.id, p.owner_id, u.name, u.telegram_chat_id, p.pin_code, p.discount_percentage,
       p.plan_type, p.max_usages_per_month, p.expires_at, p.is_active, p.created_at
  FROM discount_plans p
  JOIN users u ON u.id = p.owner_id
 WHERE p.pin_code = $1;
`
	rows, err := queryRows(ctx, r.pool, tx, sql, pin)
	if err != nil {
		return nil, fmt.Errorf("find plans by pin: %w", err)
	}
	defer rows.Close()

	var out []*model.DiscountPlan
	for rows.Next() {
		var p model.DiscountPlan
		var planType string
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.OwnerName, &p.OwnerChatID, &p.PinCode, &p.DiscountPercentage,
			&planType, &p.MaxUsagesPerMonth, &p.ExpiresAt, &p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.PlanType = model.PlanType(planType)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return out, nil
}
