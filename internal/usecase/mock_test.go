//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func fixedClock(t time.Time) adapter.Clock {
	return adapter.ClockFunc(func() time.Time { return t })
}

// --- Mock Plan Registry

type MockPlanRegistry struct {
	FindByPinFunc func(ctx context.Context, tx repository.Tx, pin string) ([]*model.DiscountPlan, error)
	calls         int
}

var _ repository.PlanRegistry = (*MockPlanRegistry)(nil)

func (m *MockPlanRegistry) FindByPin(ctx context.Context, tx repository.Tx, pin string) ([]*model.DiscountPlan, error) {
	m.calls++
	return m.FindByPinFunc(ctx, tx, pin)
}

// --- Mock Ledger

type MockLedger struct {
	CountSuccessfulFunc        func(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error)
	InsertSuccessAtomicFunc    func(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error)
	InsertFailedFunc           func(ctx context.Context, tx repository.Tx, rec *model.Redemption) error
	FindByVerificationCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error)
	ListByOwnerFunc            func(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error)
	ListByProviderFunc         func(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error)
}

var _ repository.RedemptionLedger = (*MockLedger)(nil)

func (m *MockLedger) CountSuccessful(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error) {
	return m.CountSuccessfulFunc(ctx, tx, ownerID, monthYear)
}
func (m *MockLedger) InsertSuccessAtomic(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	return m.InsertSuccessAtomicFunc(ctx, tx, rec, limit)
}
func (m *MockLedger) InsertFailed(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	if m.InsertFailedFunc == nil {
		return nil
	}
	return m.InsertFailedFunc(ctx, tx, rec)
}
func (m *MockLedger) FindByVerificationCode(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error) {
	return m.FindByVerificationCodeFunc(ctx, tx, code)
}
func (m *MockLedger) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error) {
	return m.ListByOwnerFunc(ctx, tx, ownerID, limit)
}
func (m *MockLedger) ListByProvider(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error) {
	return m.ListByProviderFunc(ctx, tx, providerID, limit)
}

// --- Mock Transaction Manager

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// --- Mock Notifier

type MockNotifier struct {
	mu    sync.Mutex
	sent  []*model.Redemption
	Error error
}

var _ adapter.RedemptionNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyRedeemed(ctx context.Context, plan *model.DiscountPlan, rec *model.Redemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, rec)
	return m.Error
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
