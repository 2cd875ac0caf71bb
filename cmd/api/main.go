package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/api"
	"github.com/illegalcall/quickfix/internal/assistant"
	"github.com/illegalcall/quickfix/internal/config"
	"github.com/illegalcall/quickfix/internal/events"
	"github.com/illegalcall/quickfix/internal/metrics"
	"github.com/illegalcall/quickfix/internal/pkg/supabase"
	"github.com/illegalcall/quickfix/pkg/database"
	"github.com/illegalcall/quickfix/pkg/kafka"
	"github.com/illegalcall/quickfix/pkg/logger"
	"github.com/illegalcall/quickfix/pkg/migrate"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Options{Service: "quickfix-api", Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api stopped with error")
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

	if !cfg.IsProduction() {
		if err := migrate.Up(ctx, db.DB.DB); err != nil {
			return err
		}
	}

	// Initialize Kafka producer
	var pub events.Publisher = events.Nop{}
	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Broker, cfg.Kafka.RetryMax, cfg.Kafka.RetryBackoff)
		if err != nil {
			return err
		}
		defer closeProducer(producer, log)
		pub = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		log.Info().Str("topic", cfg.Kafka.Topic).Msg("connected to Kafka")
	} else {
		log.Warn().Msg("KAFKA_BROKER is empty, events are discarded")
	}

	gemini, err := assistant.NewGemini(ctx, assistant.GeminiConfig{
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		return err
	}
	defer gemini.Close()

	identity := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	if err := identity.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("identity provider not reachable yet")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	server, err := api.NewServer(cfg, db, api.Deps{
		Identity:  identity,
		Assistant: gemini,
		Publisher: pub,
		Metrics:   metrics.New(reg),
		Gatherer:  reg,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("starting server")
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func closeProducer(p sarama.SyncProducer, log zerolog.Logger) {
	if err := p.Close(); err != nil {
		log.Error().Err(err).Msg("closing Kafka producer")
	}
}
