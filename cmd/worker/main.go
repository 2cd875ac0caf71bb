package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/repository"
	"github.com/illegalcall/quickfix/internal/worker"
	"github.com/illegalcall/quickfix/pkg/database"
	"github.com/illegalcall/quickfix/pkg/kafka"
	"github.com/illegalcall/quickfix/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Options{Service: "quickfix-worker", Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("worker stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Initialize database clients
	db, err := database.NewClients(ctx, database.Options{
		DatabaseURL:     cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		RedisAddr:       cfg.Redis.Addr,
		RedisPassword:   cfg.Redis.Password,
		RedisDB:         cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("closing database clients")
		}
	}()
	log.Info().Msg("connected to databases")

	// Initialize Kafka consumer
	consumer, err := kafka.NewConsumer(ctx, cfg.Kafka.Broker, cfg.Kafka.Group)
	if err != nil {
		return err
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("closing Kafka consumer")
		}
	}()
	log.Info().Str("group", cfg.Kafka.Group).Msg("connected to Kafka")

	w := worker.NewWorker(cfg.Kafka, consumer, repository.NewNotificationRepository(db.DB),
		metrics.New(prometheus.DefaultRegisterer), log)
	return w.Start(ctx)
}
