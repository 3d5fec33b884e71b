// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/config"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/model"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	return newWithWriter(cfg, dev, os.Stdout)
}

func newWithWriter(cfg config.LogConfig, dev bool, w io.Writer) *zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		base = zerolog.New(out).Level(level).With().Timestamp().Logger()
	} else {
		base = zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Keep 1 of every 100 debug/info events; warnings and errors pass.
		sampled := base.Sample(zerolog.LevelSampler{
			DebugSampler: &zerolog.BasicSampler{N: 100},
			InfoSampler:  &zerolog.BasicSampler{N: 100},
		})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID    ctxKey = "trace_id"
	ctxProviderID ctxKey = "provider_id"
	ctxRole       ctxKey = "role"
	ctxOwnerID    ctxKey = "plan_owner_id"
)

// With attaches the request fields carried by ctx to base.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	l := base.With()
	if v, ok := ctx.Value(ctxTraceID).(string); ok {
		l = l.Str("trace_id", v)
	}
	if v, ok := ctx.Value(ctxProviderID).(string); ok {
		l = l.Str("provider_id", v)
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		l = l.Str("role", v)
	}
	if v, ok := ctx.Value(ctxOwnerID).(string); ok {
		l = l.Str("plan_owner_id", v)
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "RedemptionUC.Redeem")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		elapsed := time.Since(start)
		logger.Trace().Str("method", name).Dur("duration", elapsed).Msg("finish")
	}
}

// RedactPin masks a PIN unless running in dev.
func RedactPin(pin string, dev bool) string {
	if dev {
		return pin
	}
	return model.MaskPin(pin)
}

// Helpers to put IDs into context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithProviderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxProviderID, id)
}
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxRole, role)
}
func WithPlanOwnerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOwnerID, id)
}

// TraceID returns the trace id stored in ctx, or "".
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}
