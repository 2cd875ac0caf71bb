package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

type Options struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func NewClients(ctx context.Context, opts Options) (*Clients, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", opts.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, multierr.Append(
			fmt.Errorf("failed to connect to Redis: %w", err),
			db.Close(),
		)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

// Close releases both connections and reports every failure.
func (c *Clients) Close() error {
	var err error
	if c.DB != nil {
		err = multierr.Append(err, c.DB.Close())
	}
	if c.Redis != nil {
		err = multierr.Append(err, c.Redis.Close())
	}
	return err
}
