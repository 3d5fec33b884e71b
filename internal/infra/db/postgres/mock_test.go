//go:build !integration

package postgres

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	red "github.com/fetosat/daleelbalady-sub010/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerLedger mocks the database ledger that the cache decorator wraps.
type mockInnerLedger struct {
	CountSuccessfulFunc        func(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error)
	InsertSuccessAtomicFunc    func(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error)
	InsertFailedFunc           func(ctx context.Context, tx repository.Tx, rec *model.Redemption) error
	FindByVerificationCodeFunc func(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error)
	ListByOwnerFunc            func(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error)
	ListByProviderFunc         func(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error)
}

func (m *mockInnerLedger) CountSuccessful(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error) {
	return m.CountSuccessfulFunc(ctx, tx, ownerID, monthYear)
}
func (m *mockInnerLedger) InsertSuccessAtomic(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	return m.InsertSuccessAtomicFunc(ctx, tx, rec, limit)
}
func (m *mockInnerLedger) InsertFailed(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	return m.InsertFailedFunc(ctx, tx, rec)
}
func (m *mockInnerLedger) FindByVerificationCode(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error) {
	return m.FindByVerificationCodeFunc(ctx, tx, code)
}
func (m *mockInnerLedger) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error) {
	return m.ListByOwnerFunc(ctx, tx, ownerID, limit)
}
func (m *mockInnerLedger) ListByProvider(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error) {
	return m.ListByProviderFunc(ctx, tx, providerID, limit)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	TTLFunc    func(ctx context.Context, key string) (time.Duration, error)
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return m.TTLFunc(ctx, key)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
