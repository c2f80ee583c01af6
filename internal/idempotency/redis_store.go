package idempotency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the value stored under an idempotency key.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"

	keyPrefix = "idempotency:"
)

// Store persists one status per key.
type Store interface {
	// Claim marks an unseen key as processing for claimTTL. When the key already exists it
	// returns false with the stored status.
	Claim(ctx context.Context, key string, claimTTL time.Duration) (bool, Status, error)
	// Complete marks key as completed for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
}

type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Claim(ctx context.Context, key string, claimTTL time.Duration) (bool, Status, error) {
	redisKey := storeKey(key)

	claimed, err := s.client.SetNX(ctx, redisKey, string(StatusProcessing), claimTTL).Result()
	if err != nil {
		s.log.Error("failed to claim idempotency key", slog.String("key", key), slog.Any("error", err))
		return false, "", err
	}
	if claimed {
		return true, StatusProcessing, nil
	}

	current, err := s.client.Get(ctx, redisKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired between SETNX and GET; treat as still in flight rather than race a reclaim.
		return false, StatusProcessing, nil
	case err != nil:
		s.log.Error("failed to read idempotency key", slog.String("key", key), slog.Any("error", err))
		return false, "", err
	}

	return false, Status(current), nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, storeKey(key), string(StatusCompleted), ttl).Err(); err != nil {
		s.log.Error("failed to store idempotency status", slog.String("key", key), slog.Any("error", err))
		return err
	}
	return nil
}

func storeKey(key string) string {
	return keyPrefix + key
}

// MessageKey identifies one inbound chat message.
func MessageKey(chatID int64, messageID int) string {
	return fmt.Sprintf("msg:%d:%d", chatID, messageID)
}
