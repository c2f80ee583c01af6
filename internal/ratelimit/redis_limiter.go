package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// slidingWindow trims the window, counts the event only when under the limit, and lets the key
// expire with the window, so no separate cleanup is needed.
// ARGV: now_ms, cutoff_ms, window_ms, limit, member. Returns {allowed, count, oldest_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < tonumber(ARGV[4]) then
  redis.call('ZADD', key, ARGV[1], ARGV[5])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, ARGV[3])

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestMs = ARGV[1]
if oldest[2] then
  oldestMs = oldest[2]
end
return {allowed, count, oldestMs}
`)

// RedisLimiter implements Limiter on a Redis sorted set per key, so the limit holds across
// bot replicas sharing one Redis. Scores are unix milliseconds.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		now:    time.Now,
		log:    log,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule Rule) (Result, error) {
	if l.client == nil {
		return Result{}, errors.New("redis client is not configured for rate limiting")
	}

	now := l.now().UnixMilli()
	window := rule.Window.Milliseconds()

	reply, err := slidingWindow.Run(ctx, l.client,
		[]string{keyPrefix + key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(now-window, 10),
		strconv.FormatInt(window, 10),
		strconv.Itoa(rule.Limit),
		uuid.NewString(),
	).Slice()
	if err != nil {
		l.log.Warn("rate limiter script failed", slog.String("key", key), slog.Any("error", err))
		return Result{}, err
	}

	allowed, count, oldest, err := parseReply(reply)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:   allowed,
		Remaining: max(rule.Limit-int(count), 0),
		ResetAt:   time.UnixMilli(oldest).Add(rule.Window),
	}, nil
}

func parseReply(reply []interface{}) (allowed bool, count, oldestMs int64, err error) {
	if len(reply) != 3 {
		return false, 0, 0, fmt.Errorf("rate limiter script returned %d values", len(reply))
	}

	flag, ok1 := reply[0].(int64)
	count, ok2 := reply[1].(int64)
	raw, ok3 := reply[2].(string)
	if !ok1 || !ok2 || !ok3 {
		return false, 0, 0, fmt.Errorf("rate limiter script returned unexpected types %T %T %T", reply[0], reply[1], reply[2])
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limiter oldest score: %w", err)
	}

	return flag == 1, count, int64(score), nil
}
