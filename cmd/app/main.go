// File: cmd/app/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/config"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/adapter"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	tele "github.com/fetosat/daleelbalady-sub010/internal/infra/adapters/telegram"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/api"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/db/demo"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/db/memory"
	pg "github.com/fetosat/daleelbalady-sub010/internal/infra/db/postgres"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/health"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/i18n"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/notify"
	red "github.com/fetosat/daleelbalady-sub010/internal/infra/redis"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/sched"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/worker"
	"github.com/fetosat/daleelbalady-sub010/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Config & logging ----
	cfg, err := config.FromFlags()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("DEV MODE enabled: PINs are logged in clear")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	loc, err := cfg.Ledger.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger timezone")
	}
	clock := adapter.SystemClock{Location: loc}

	// ---- Storage ----
	var (
		plans   repository.PlanRegistry
		ledger  repository.RedemptionLedger
		tm      repository.TransactionManager
		checks  []health.Check
		jobs    []sched.Job
		limiter api.Limiter
	)

	var redisClient *red.Client
	if cfg.Redis.Enabled() {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; running without cache and rate limiting")
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient, cfg.RateLimit.Attempts, cfg.RateLimit.Window)
		checks = append(checks, health.Check{Name: "redis", Probe: redisClient.Ping})
	}

	switch cfg.Database.Driver {
	case "memory":
		logger.Warn().Msg("using the in-memory store; data is lost on exit and caps hold for this process only")
		registry := memory.NewPlanRegistry()
		if cfg.Runtime.Dev {
			for _, p := range demo.Plans(clock.Now()) {
				registry.Save(p)
			}
			logger.Info().Msg("demo plans loaded")
		}
		plans = registry
		ledger = memory.NewLedger()
		tm = memory.NewTxManager()
	default:
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()

		plans = pg.NewPostgresPlanRepo(pool)
		ledger = pg.NewRedemptionRepo(pool)
		if redisClient != nil {
			ledger = pg.NewRedemptionRepoCacheDecorator(ledger, redisClient, cfg.Redis.TTL, logger)
		}
		tm = pg.NewTxManager(pool)

		checks = append(checks, health.Check{Name: "postgres", Critical: true, Probe: pool.Ping})
		jobs = append(jobs, sched.Job{
			Name:     "db_pool_stats",
			Interval: 15 * time.Second,
			Run:      func(ctx context.Context) error { return pg.PublishPoolStats(ctx, pool) },
		})
	}

	// ---- Notifications ----
	var sender adapter.TelegramSender
	if cfg.Notify.TelegramToken != "" {
		bot, err := tele.NewBotSender(cfg.Notify.TelegramToken, cfg.Notify.PerSecond, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		sender = bot
	} else {
		sender = tele.NewNoopSender(logger)
	}
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Notify.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("notify.language")
	}
	workers := worker.NewPool(cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	workers.Start(ctx)
	notifier := notify.NewAsyncNotifier(notify.NewTelegramNotifier(sender, tr, logger), workers, 10*time.Second, logger)

	// ---- Use cases ----
	verifier := usecase.NewPinVerifier(plans, clock, logger)
	redemptionUC := usecase.NewRedemptionUseCase(verifier, ledger, tm, notifier, clock, usecase.RedemptionOptions{
		Currency:        cfg.Ledger.Currency,
		RecordFailures:  cfg.Ledger.RecordsFailures(),
		HistoryLimit:    cfg.Ledger.HistoryLimit,
		MaxHistoryLimit: cfg.Ledger.MaxHistoryLimit,
		Dev:             cfg.Runtime.Dev,
	}, logger)

	// ---- Health & background jobs ----
	checker := health.NewChecker(health.NewResultCache(), cfg.Health.TTL, cfg.Health.CheckTimeout, logger, checks...)
	jobs = append(jobs, sched.Job{
		Name:     "health_refresh",
		Interval: cfg.Health.TTL,
		Run: func(ctx context.Context) error {
			checker.Refresh(ctx)
			return nil
		},
	})
	scheduler := sched.NewScheduler(logger, jobs...)
	scheduler.Start(ctx)

	// ---- HTTP ----
	auth := api.NewAuthenticator(cfg.Auth.HMACSecret, cfg.Auth.Issuer)
	server := api.NewServer(cfg.HTTP, redemptionUC, auth, api.Options{
		Limiter:     limiter,
		LimitWindow: cfg.RateLimit.Window,
		Health:      checker,
	}, logger)

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	scheduler.Stop()
	workers.Stop()
	cancel()
	logger.Info().Msg("bye")
}
