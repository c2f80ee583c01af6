package idempotency

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Cleaner removes idempotency keys that lost their TTL or carry one longer than maxTTL, which
// happens when an operator edits keys by hand.
type Cleaner struct {
	client   *redis.Client
	log      *slog.Logger
	interval time.Duration
	maxTTL   time.Duration
}

func NewCleaner(client *redis.Client, log *slog.Logger, interval, maxTTL time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		client:   client,
		log:      log,
		interval: interval,
		maxTTL:   maxTTL,
	}
}

func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.client == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("idempotency cleaner stopped")
			return
		case <-ticker.C:
			if removed := c.cleanup(ctx); removed > 0 {
				c.log.Info("idempotency keys cleaned", slog.Int("keys_removed", removed))
			}
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) int {
	removed := 0
	batch := make([]string, 0, scanBatch)

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			removed += c.purge(ctx, batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Error("idempotency cleaner scan failed", slog.Any("error", err))
	}

	return removed + c.purge(ctx, batch)
}

// purge deletes the keys in batch with no expiry (TTL -1) or an expiry beyond maxTTL.
func (c *Cleaner) purge(ctx context.Context, batch []string) int {
	if len(batch) == 0 {
		return 0
	}

	pipe := c.client.Pipeline()
	ttls := make([]*redis.DurationCmd, len(batch))
	for i, key := range batch {
		ttls[i] = pipe.TTL(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("idempotency cleaner ttl lookup failed", slog.Any("error", err))
		return 0
	}

	stale := make([]string, 0)
	for i, cmd := range ttls {
		if ttl := cmd.Val(); ttl == -1 || ttl > c.maxTTL {
			stale = append(stale, batch[i])
		}
	}
	if len(stale) == 0 {
		return 0
	}

	n, err := c.client.Del(ctx, stale...).Result()
	if err != nil {
		c.log.Warn("failed to delete stale idempotency keys", slog.Any("error", err))
		return 0
	}
	return int(n)
}
