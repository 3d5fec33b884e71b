package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

// NewPgxPool parses dsn, applies maxConns and verifies connectivity.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// PublishPoolStats copies the current pool counters into the db_pool_stats gauges.
func PublishPoolStats(_ context.Context, pool *pgxpool.Pool) error {
	s := pool.Stat()
	metrics.SetDBPoolStats(metrics.PoolSnapshot{
		Total:         s.TotalConns(),
		Idle:          s.IdleConns(),
		InUse:         s.AcquiredConns(),
		Max:           s.MaxConns(),
		EmptyAcquires: s.EmptyAcquireCount(),
	})
	return nil
}
