package ratelimit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	backendPrimary  = "redis"
	backendFallback = "memory"
)

var (
	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ratelimit_checks_total",
		Help: "Rate limit decisions by backend and result.",
	}, []string{"backend", "result"})

	backendErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_backend_errors_total",
		Help: "Primary limiter failures that triggered the in-memory fallback.",
	})
)

// AdaptiveLimiter consults a shared primary limiter and, when it fails, a local fallback with
// half the limit, since each replica then counts only its own traffic.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (a *AdaptiveLimiter) Allow(ctx context.Context, key string, rule Rule) (Result, error) {
	result, err := a.primary.Allow(ctx, key, rule)
	if err == nil {
		observe(backendPrimary, result)
		return result, nil
	}

	backendErrorsTotal.Inc()
	a.log.WarnContext(ctx, "primary rate limiter failed, using in-memory fallback", slog.String("key", key), slog.Any("error", err))

	rule.Limit = max(rule.Limit/2, 1)
	result, err = a.fallback.Allow(ctx, key, rule)
	if err != nil {
		return result, err
	}

	observe(backendFallback, result)
	return result, nil
}

func observe(backend string, result Result) {
	outcome := "allowed"
	if !result.Allowed {
		outcome = "rejected"
	}
	checksTotal.WithLabelValues(backend, outcome).Inc()
}
