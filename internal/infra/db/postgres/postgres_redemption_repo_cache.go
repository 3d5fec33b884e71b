package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
	red "github.com/fetosat/daleelbalady-sub010/internal/infra/redis"
)

var _ repository.RedemptionLedger = (*redemptionRepoCacheDecorator)(nil)

// redemptionRepoCacheDecorator caches lookups by verification code. Ledger rows
// are never updated, so entries need no invalidation. Cap counting and history
// always go to the inner ledger.
type redemptionRepoCacheDecorator struct {
	inner  repository.RedemptionLedger
	cache  red.RedisClient
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewRedemptionRepoCacheDecorator(inner repository.RedemptionLedger, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.RedemptionLedger {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "redemption_cache").Logger()
	return &redemptionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, logger: &l}
}

func redemptionCacheKey(code string) string { return "redemption:code:" + code }

func (d *redemptionRepoCacheDecorator) FindByVerificationCode(ctx context.Context, tx repository.Tx, code string) (*model.Redemption, error) {
	key := redemptionCacheKey(code)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var rec model.Redemption
		if json.Unmarshal([]byte(val), &rec) == nil {
			metrics.IncCacheRequest("redemption", metrics.CacheHit)
			return &rec, nil
		}
		metrics.IncCacheRequest("redemption", metrics.CacheMiss)
	} else if errors.Is(err, redis.Nil) {
		metrics.IncCacheRequest("redemption", metrics.CacheMiss)
	} else {
		metrics.IncCacheRequest("redemption", metrics.CacheError)
		d.logger.Warn().Err(err).Msg("redemption cache read failed")
	}

	rec, err := d.inner.FindByVerificationCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rec); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.logger.Warn().Err(err).Msg("redemption cache write failed")
		}
	}
	return rec, nil
}

func (d *redemptionRepoCacheDecorator) CountSuccessful(ctx context.Context, tx repository.Tx, ownerID, monthYear string) (int, error) {
	return d.inner.CountSuccessful(ctx, tx, ownerID, monthYear)
}

func (d *redemptionRepoCacheDecorator) InsertSuccessAtomic(ctx context.Context, tx repository.Tx, rec *model.Redemption, limit int) (int, bool, error) {
	return d.inner.InsertSuccessAtomic(ctx, tx, rec, limit)
}

func (d *redemptionRepoCacheDecorator) InsertFailed(ctx context.Context, tx repository.Tx, rec *model.Redemption) error {
	return d.inner.InsertFailed(ctx, tx, rec)
}

func (d *redemptionRepoCacheDecorator) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string, limit int) ([]*model.Redemption, error) {
	return d.inner.ListByOwner(ctx, tx, ownerID, limit)
}

func (d *redemptionRepoCacheDecorator) ListByProvider(ctx context.Context, tx repository.Tx, providerID string, limit int) ([]*model.Redemption, error) {
	return d.inner.ListByProvider(ctx, tx, providerID, limit)
}
