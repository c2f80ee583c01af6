package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	"github.com/Proton-105/quiz-bot/internal/idempotency"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram message, so a redelivered
// update never feeds the quiz twice.
func Idempotency(manager idempotency.Manager, ttl time.Duration, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			ran := false
			result, err := manager.Execute(handlers.ContextFrom(c), key, ttl, func(_ context.Context) error {
				ran = true
				return next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.Debug("update already in progress", slog.String("key", key))
					return nil
				}
				if ran {
					return err
				}

				// Store unavailable: handle the update rather than drop it.
				log.Warn("idempotency store failed, handling update unguarded", slog.String("key", key), slog.Any("error", err))
				return next(c)
			}

			if result != nil && result.FromCache {
				log.Debug("duplicate update skipped", slog.String("key", key))
			}

			return nil
		}
	}
}

func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	msg := c.Message()
	if msg == nil || msg.ID == 0 {
		return ""
	}

	chatID := int64(0)
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}

	return idempotency.MessageKey(chatID, msg.ID)
}
