package middleware

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	policy  *ratelimit.Policy
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, policy *ratelimit.Policy, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		policy:  policy,
		log:     log,
	}
}

// Handle rejects updates from senders over their limit with a rate-limit AppError. Limiter
// failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m == nil || m.limiter == nil || !m.policy.Enabled() {
			return next(c)
		}

		userID, ok := senderID(c)
		if !ok || m.policy.Exempt(userID) {
			return next(c)
		}

		result, err := m.limiter.Allow(handlers.ContextFrom(c), fmt.Sprintf("user:%d", userID), m.policy.PerUser())
		if err != nil {
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if !result.Allowed {
			retryAfter := result.RetryAfter(time.Now())
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID), slog.Int("retry_after", retryAfter))
			return apperrors.NewRateLimitError(retryAfter)
		}

		return next(c)
	}
}

func senderID(c telebot.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	if sender := c.Sender(); sender != nil {
		return sender.ID, true
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID, true
	}
	return 0, false
}
