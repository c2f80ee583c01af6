package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/quiz-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/internal/idempotency"
	"github.com/Proton-105/quiz-bot/internal/middleware"
	"github.com/Proton-105/quiz-bot/pkg/config"
)

const modeWebhook = "webhook"

// Options carries the optional collaborators of the update pipeline.
type Options struct {
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
	Breaker     *apperrors.CircuitBreaker
	// ErrorHandler is the process-wide error sink. Nil builds one from cfg.
	ErrorHandler *apperrors.Handler
	// Offline skips the getMe call, for tests.
	Offline bool
}

// Bot wraps telebot.Bot with the quiz dispatcher and its middleware chain.
type Bot struct {
	telebot    *telebot.Bot
	dispatcher *Dispatcher
	errHandler *apperrors.Handler
	handler    handlers.Handler
	log        *slog.Logger
}

// New builds a telegram bot configured according to the application settings. Updates are
// processed synchronously so that messages reach the dispatcher in arrival order.
func New(cfg config.Config, log *slog.Logger, dispatcher *Dispatcher, opts Options) (*Bot, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("initialize bot: dispatcher is required")
	}
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token:       cfg.Bot.Token,
		Synchronous: true,
		Offline:     opts.Offline,
		OnError: func(err error, c telebot.Context) {
			log.ErrorContext(handlers.ContextFrom(c), "telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == modeWebhook {
		settings.Poller = &telebot.Webhook{Listen: cfg.Bot.Listen}
	} else {
		settings.Poller = &telebot.LongPoller{Timeout: cfg.Bot.Timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, apperrors.NewTransportError("initialize telebot", err)
	}

	errHandler := opts.ErrorHandler
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log, cfg.Sentry.Enabled)
	}

	b := &Bot{
		telebot:    tb,
		dispatcher: dispatcher,
		errHandler: errHandler,
		log:        log,
	}

	handler, err := b.buildHandler(cfg, opts)
	if err != nil {
		return nil, err
	}
	b.handler = handler
	tb.Handle(telebot.OnText, telebot.HandlerFunc(handler))

	return b, nil
}

func (b *Bot) buildHandler(cfg config.Config, opts Options) (handlers.Handler, error) {
	var guard handlers.Guard
	if opts.Breaker != nil {
		guard = opts.Breaker.Call
	}

	quizHandler, err := handlers.NewQuizHandler(b.dispatcher, guard)
	if err != nil {
		return nil, err
	}

	var rateLimit handlers.Middleware
	if opts.RateLimit != nil {
		rateLimit = opts.RateLimit.Handle
	}

	return handlers.Chain(quizHandler,
		LoggingMiddleware(b.log),
		RecoveryMiddleware(b.log, b.errHandler),
		ErrorHandlingMiddleware(b.errHandler),
		ChatFilterMiddleware(cfg.Bot.AllowedChatID, b.log),
		rateLimit,
		middleware.Idempotency(opts.Idempotency, cfg.Idempotency.TTL, b.log),
		middleware.Metrics,
	), nil
}

// Start runs the telegram bot event loop until Stop is called.
func (b *Bot) Start() {
	b.log.Info("telegram bot started", slog.String("username", b.username()))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Ping verifies the Telegram API is reachable with the configured token.
func (b *Bot) Ping(_ context.Context) error {
	if _, err := b.telebot.Raw("getMe", nil); err != nil {
		return apperrors.NewTransportError("getMe", err)
	}
	return nil
}

// Dispatcher exposes the quiz dispatcher for health reporting.
func (b *Bot) Dispatcher() *Dispatcher {
	return b.dispatcher
}

func (b *Bot) username() string {
	if b.telebot.Me == nil {
		return ""
	}
	return b.telebot.Me.Username
}
