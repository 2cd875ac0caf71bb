package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/pkg/logger"
	"github.com/illegalcall/quickfix/pkg/migrate"
)

const usage = "usage: migrate up|down|status"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(logger.Options{Service: "quickfix-migrate", Level: cfg.Log.Level, Format: "console"})

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = migrate.Up(ctx, db.DB)
	case "down":
		err = migrate.Down(ctx, db.DB)
	case "status":
		err = migrate.Status(ctx, db.DB)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("migration failed")
		os.Exit(1)
	}
	log.Info().Str("command", os.Args[1]).Msg("done")
}
