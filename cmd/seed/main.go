package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/config"
	"github.com/fetosat/daleelbalady-sub010/internal/domain/ports/repository"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/api"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/db/demo"
	pg "github.com/fetosat/daleelbalady-sub010/internal/infra/db/postgres"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	tokenFor := flag.String("token", "", "also print a 24h PROVIDER token for this subject")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, true)
	if cfg.Database.Driver != "postgres" {
		logger.Fatal().Str("driver", cfg.Database.Driver).Msg("seeding needs the postgres driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	users := pg.NewPostgresUserRepo(pool)
	plans := pg.NewPostgresPlanRepo(pool)
	tm := pg.NewTxManager(pool)

	now := time.Now().UTC()
	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, u := range demo.Users(now) {
			if err := users.Save(ctx, tx, u); err != nil {
				return err
			}
		}
		for _, p := range demo.Plans(now) {
			if err := plans.Save(ctx, tx, p); err != nil {
				return err
			}
			fmt.Printf("seeded: pin=%s owner=%q type=%s discount=%d%% cap=%d/month expires=%s\n",
				p.PinCode, p.OwnerName, p.PlanType, p.DiscountPercentage, p.MaxUsagesPerMonth, p.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}

	if *tokenFor != "" {
		tok, err := api.NewAuthenticator(cfg.Auth.HMACSecret, cfg.Auth.Issuer).Mint(*tokenFor, api.RoleProvider, 24*time.Hour)
		if err != nil {
			logger.Fatal().Err(err).Msg("mint token")
		}
		fmt.Printf("provider token for %s:\n%s\n", *tokenFor, tok)
	}

	fmt.Println("Seeding complete.")
}
