package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter is an in-process sliding-window Limiter. It serves alone when Redis is disabled
// and as the fallback of AdaptiveLimiter otherwise.
type MemoryLimiter struct {
	mu     sync.Mutex
	events map[string][]time.Time
	now    func() time.Time
	log    *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		events: make(map[string][]time.Time),
		now:    time.Now,
		log:    log,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, rule Rule) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	events := trimBefore(m.events[key], now.Add(-rule.Window))

	allowed := len(events) < rule.Limit
	if allowed {
		events = append(events, now)
	}
	if len(events) == 0 {
		delete(m.events, key)
	} else {
		m.events[key] = events
	}

	resetAt := now.Add(rule.Window)
	if len(events) > 0 {
		resetAt = events[0].Add(rule.Window)
	}

	return Result{
		Allowed:   allowed,
		Remaining: max(rule.Limit-len(events), 0),
		ResetAt:   resetAt,
	}, nil
}

// Sweep forgets keys whose newest event is older than maxIdle.
func (m *MemoryLimiter) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, events := range m.events {
		if len(events) == 0 || events[len(events)-1].Before(cutoff) {
			delete(m.events, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle keys every interval until ctx is canceled.
func (m *MemoryLimiter) Run(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(maxIdle); removed > 0 {
				m.log.Debug("rate limit buckets swept", slog.Int("keys_removed", removed))
			}
		}
	}
}

// trimBefore drops events older than cutoff, reusing the backing array.
func trimBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return events
	}
	return append(events[:0], events[i:]...)
}
