// Package ratelimit throttles inbound chat updates per sender with a sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows Limit events per sliding Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the oldest counted event leaves the window.
	ResetAt time.Time
}

// RetryAfter is the whole number of seconds until another event would be counted, at least 1.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter describes a rate-limiting strategy. A rejected event is reported through
// Result.Allowed and is not counted; errors are reserved for backend failures.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Result, error)
}
