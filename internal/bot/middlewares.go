package bot

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/pkg/logger"
)

const defaultUserMessage = "Something went wrong. Please try again later."

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler ErrorReporter) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				ctx := handlers.ContextFrom(c)
				log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

				userMsg := defaultUserMessage
				if errHandler != nil {
					appErr := apperrors.NewStateError("panic recovered", fmt.Errorf("%v", r))
					if msg, _ := errHandler.Handle(ctx, appErr); msg != "" {
						userMsg = msg
					}
				}

				if c != nil {
					if sendErr := c.Send(userMsg); sendErr != nil {
						log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
					}
				}

				err = nil
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
// Errors without a user message are reported only.
func ErrorHandlingMiddleware(errHandler ErrorReporter) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil || errHandler == nil {
				return err
			}

			userMsg, _ := errHandler.Handle(handlers.ContextFrom(c), err)
			if userMsg != "" && c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware tags each update with a correlation id and logs its handling.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()

			chatID, messageID := int64(0), 0
			if c != nil && c.Message() != nil {
				messageID = c.Message().ID
				if chat := c.Chat(); chat != nil {
					chatID = chat.ID
				}
			}

			ctx := logger.WithCorrelationID(handlers.ContextFrom(c), "")
			handlers.WithContext(c, ctx)

			log.DebugContext(ctx, "handling update",
				slog.Int64("chat_id", chatID),
				slog.Int("message_id", messageID),
			)
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("chat_id", chatID),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// ChatFilterMiddleware drops updates from chats other than allowedChatID. Zero allows every chat.
func ChatFilterMiddleware(allowedChatID int64, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil || allowedChatID == 0 {
			return next
		}

		return func(c telebot.Context) error {
			if c == nil || c.Chat() == nil || c.Chat().ID != allowedChatID {
				chatID := int64(0)
				if c != nil && c.Chat() != nil {
					chatID = c.Chat().ID
				}
				log.DebugContext(handlers.ContextFrom(c), "dropping update from foreign chat", slog.Int64("chat_id", chatID))
				return nil
			}

			return next(c)
		}
	}
}
