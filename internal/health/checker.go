// Package health reports the readiness of the bot's collaborators on the ops server.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	defaultTimeout = 3 * time.Second
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts an ordinary function to Checkable.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Report is the body served by Handler.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Info   map[string]any    `json:"info,omitempty"`
}

// Checker aggregates health checks for multiple components.
type Checker struct {
	mu      sync.RWMutex
	log     *slog.Logger
	checks  map[string]Checkable
	info    map[string]func() any
	timeout time.Duration
}

// NewChecker instantiates a Checker with the provided logger.
func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}

	return &Checker{
		log:     log,
		checks:  make(map[string]Checkable),
		info:    make(map[string]func() any),
		timeout: defaultTimeout,
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// AddInfo registers a value reported alongside the checks without affecting the status.
func (c *Checker) AddInfo(name string, fn func() any) {
	if name == "" || fn == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.info[name] = fn
}

// Check runs all registered health checks concurrently and returns the aggregated report.
func (c *Checker) Check(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Checkable, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	providers := make(map[string]func() any, len(c.info))
	for name, fn := range c.info {
		providers[name] = fn
	}
	c.mu.RUnlock()

	// Providers may block on their component's lock, so they run outside c.mu.
	info := make(map[string]any, len(providers))
	for name, fn := range providers {
		info[name] = fn()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := Report{Status: statusOK, Checks: make(map[string]string, len(checks))}
	if len(info) > 0 {
		report.Info = info
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Checkable) {
			defer wg.Done()

			result := statusOK
			if err := check.HealthCheck(ctx); err != nil {
				result = err.Error()
				c.log.WarnContext(ctx, "health check failed", slog.String("component", name), slog.Any("error", err))
			}

			mu.Lock()
			report.Checks[name] = result
			if result != statusOK {
				report.Status = statusDegraded
			}
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return report
}

// Names returns the registered check names in sorted order.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler serves the report as JSON, with 503 when any check fails.
func (c *Checker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		report := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status != statusOK {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			c.log.ErrorContext(r.Context(), "failed to write health report", slog.Any("error", err))
		}
	})
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// TelegramPinger is satisfied by the bot wrapper.
type TelegramPinger interface {
	Ping(ctx context.Context) error
}

// TelegramChecker verifies that the Telegram bot API is reachable.
type TelegramChecker struct {
	bot TelegramPinger
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot TelegramPinger) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck calls getMe through the bot.
func (c *TelegramChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.bot == nil {
		return errors.New("telegram bot is not initialized")
	}
	return c.bot.Ping(ctx)
}
