package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/Proton-105/quiz-bot/internal/bot"
	apperrors "github.com/Proton-105/quiz-bot/internal/errors"
	"github.com/Proton-105/quiz-bot/internal/health"
	"github.com/Proton-105/quiz-bot/internal/i18n"
	"github.com/Proton-105/quiz-bot/internal/idempotency"
	"github.com/Proton-105/quiz-bot/internal/lifecycle"
	"github.com/Proton-105/quiz-bot/internal/middleware"
	"github.com/Proton-105/quiz-bot/internal/quiz"
	"github.com/Proton-105/quiz-bot/internal/ratelimit"
	"github.com/Proton-105/quiz-bot/pkg/config"
	"github.com/Proton-105/quiz-bot/pkg/graceful"
	"github.com/Proton-105/quiz-bot/pkg/logger"
	redisclient "github.com/Proton-105/quiz-bot/pkg/redis"
)

// idleLimiterTTL is the minimum time an in-memory sender window survives without traffic.
const idleLimiterTTL = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", apperrors.NewConfigurationError(err)))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if err := run(ctx, cfg, v, log); err != nil {
		log.Error("quiz bot stopped with error", slog.Any("error", err))
		sentry.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, v *viper.Viper, log *slog.Logger) error {
	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Warn("sentry initialization failed", slog.Any("error", err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	manager, err := loadQuiz(cfg.Quiz)
	if err != nil {
		appErr := apperrors.NewConfigurationError(err)
		errHandler.Handle(ctx, appErr)
		return appErr
	}

	catalog, err := loadCatalog(cfg, log)
	if err != nil {
		return apperrors.NewConfigurationError(err)
	}

	dispatcher, err := bot.NewDispatcher(manager, cfg.Quiz.StartCommand, catalog.Translator(cfg.Quiz.Language), errHandler, log)
	if err != nil {
		return apperrors.NewConfigurationError(err)
	}

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)
	checker.AddInfo("quiz", func() any { return dispatcher.Snapshot() })

	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	var (
		limiter     ratelimit.Limiter = memoryLimiter
		idempotence idempotency.Manager
	)

	rdb, err := connectRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		redisConn := rdb.Client
		shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
		checker.AddCheck("redis", health.NewRedisChecker(rdb))

		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(redisConn, log), memoryLimiter, log)
		idempotence = idempotency.NewManager(idempotency.NewRedisStore(redisConn, log), log)

		go idempotency.NewCleaner(redisConn, log, cfg.Idempotency.CleanupInterval, cfg.Idempotency.TTL).Run(ctx)
	}

	policy, err := ratelimit.NewPolicy(cfg.RateLimit)
	if err != nil {
		return apperrors.NewConfigurationError(err)
	}
	go memoryLimiter.Run(ctx, cfg.RateLimit.CleanupInterval, max(idleLimiterTTL, policy.PerUser().Window))
	rateLimit := middleware.NewRateLimitMiddleware(limiter, policy, log)

	b, err := bot.New(*cfg, log, dispatcher, bot.Options{
		Idempotency:  idempotence,
		RateLimit:    rateLimit,
		Breaker:      apperrors.NewCircuitBreaker(apperrors.DefaultBreakerConfig),
		ErrorHandler: errHandler,
	})
	if err != nil {
		errHandler.Handle(ctx, err)
		return err
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())
	ops := graceful.NewServer(log, cfg.Server.Port, logger.Middleware(middleware.HTTPLogging(log)(mux)), cfg.Server.ShutdownTimeout)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- ops.ListenAndServe(ctx)
	}()

	config.Watch(v, log, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
		log.Info("config reloaded", slog.String("log_level", next.Logger.Level))
	})

	shutdown.Register("telegram", func(context.Context) error {
		b.Stop()
		return nil
	})

	go b.Start()
	log.Info("quiz bot started",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("start_command", cfg.Quiz.StartCommand),
		slog.Int("questions", manager.Len()),
		slog.String("ops_addr", ops.Addr()),
	)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			log.Error("ops server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

func loadQuiz(cfg config.QuizConfig) (*quiz.Manager, error) {
	questions := quiz.DefaultQuestions()
	if cfg.QuestionsFile != "" {
		loaded, err := quiz.LoadQuestions(cfg.QuestionsFile)
		if err != nil {
			return nil, err
		}
		questions = loaded
	}

	return quiz.NewManager(questions)
}

func loadCatalog(cfg *config.Config, log *slog.Logger) (*i18n.Catalog, error) {
	catalog, err := i18n.LoadFromDir(cfg.I18n.Dir, cfg.Quiz.Language)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("i18n directory not found, using built-in catalogs", slog.String("dir", cfg.I18n.Dir))
		return i18n.Builtin(cfg.Quiz.Language)
	}
	return catalog, err
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*redisclient.Client, error) {
	if cfg.Addr == "" {
		log.Info("redis disabled, using in-memory rate limiting without idempotency")
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rdb, err := redisclient.New(connectCtx, cfg, log)
	if err != nil {
		return nil, err
	}

	log.Info("redis connected", slog.String("addr", rdb.Addr()))
	return rdb, nil
}
