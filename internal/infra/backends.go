package infra

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/apicoin/apicoin/internal/config"
)

// Backends holds the external connections the API runs on. Any of them may be
// nil in development, where in-memory stand-ins are used instead.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	NATS  *nats.Conn
}

// Open connects to every backend configured in cfg.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	var err error
	if cfg.DatabaseURL != "" {
		if b.DB, err = NewPostgresPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory ledgers")
	}
	if cfg.RedisURL != "" {
		if b.Cache, err = NewRedisClient(ctx, cfg.RedisURL, cfg.AppName); err != nil {
			b.Close(logger)
			return nil, err
		}
	} else {
		logger.Warn("REDIS_URL not set, idempotency and rate limiting disabled")
	}
	if b.NATS, err = NewNATSConn(cfg.NATSURL, cfg.AppName); err != nil {
		b.Close(logger)
		return nil, err
	}
	return b, nil
}

// Close releases every open connection.
func (b *Backends) Close(logger *slog.Logger) {
	if b.NATS != nil {
		if err := b.NATS.Drain(); err != nil {
			logger.Warn("drain nats", "error", err)
		}
	}
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}
	if b.DB != nil {
		b.DB.Close()
	}
}
