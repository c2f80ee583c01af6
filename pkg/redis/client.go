// Package redis provides the Redis client used by idempotency and rate limiting.
package redis

import (
	"context"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/pkg/config"
)

var connectRetry = apperrors.RetryPolicy{
	Attempts:       3,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     time.Second,
	Multiplier:     2,
}

// Client wraps the go-redis client shared by the bot's Redis-backed components.
type Client struct {
	*redis.Client
	addr string
}

// Options maps the redis config section onto go-redis options.
func Options(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.IdleTimeout,
		MaxRetries:      cfg.MaxRetries,
	}
}

// New connects to Redis, retrying the initial PING so a Redis container that starts alongside
// the bot is not treated as down. Failures are transport AppErrors.
func New(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	rdb := redis.NewClient(Options(cfg))

	err := apperrors.WithRetry(ctx, connectRetry, func(attempt int) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed",
				slog.String("addr", cfg.Addr),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			return apperrors.NewTransportError("ping redis at "+cfg.Addr, err)
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &Client{Client: rdb, addr: cfg.Addr}, nil
}

// Addr returns the address the client was created for.
func (c *Client) Addr() string {
	if c == nil {
		return ""
	}
	return c.addr
}
