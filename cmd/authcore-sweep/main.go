// Command authcore-sweep deletes expired refresh-token rows. Run it from
// cron or a scheduler; rotation correctness never depends on it, the sweep
// only reclaims storage.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/ispcompare/authcore/internal/dbx"
	"github.com/ispcompare/authcore/tokenstore"
	"github.com/ispcompare/authcore/tokenstore/migrations"
)

type sweepConfig struct {
	DatabaseDSN   string        `env:"AUTHCORE_DATABASE_DSN,required"`
	Timeout       time.Duration `env:"AUTHCORE_SWEEP_TIMEOUT" envDefault:"30s"`
	RunMigrations bool          `env:"AUTHCORE_SWEEP_MIGRATE" envDefault:"true"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	_ = godotenv.Load()

	var cfg sweepConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if cfg.RunMigrations {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	var deleted int64
	err = dbx.InTx(ctx, db, nil, func(ctx context.Context, q dbx.Querier) error {
		store := tokenstore.NewPostgresStore(q)
		n, err := store.DeleteExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("sweep complete", "deleted", deleted)
	return nil
}
