package usecase

import (
	"context"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// PlanVerifier resolves a PIN to a usable plan. It never writes.
type PlanVerifier interface {
	Verify(ctx context.Context, pin string) (*model.PinCheck, error)
}
