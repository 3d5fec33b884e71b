package repository

import (
	"context"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// PlanRegistry is the read-only port to subscribers' discount plans.
type PlanRegistry interface {
	// FindByPin returns every plan carrying the normalized PIN. Callers treat
	// more than one match as ambiguous; an empty slice means no match.
	FindByPin(ctx context.Context, tx Tx, pin string) ([]*model.DiscountPlan, error)
}
