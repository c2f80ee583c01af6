package ratelimit

import (
	"fmt"
	"time"

	"github.com/Proton-105/quiz-bot/pkg/config"
)

// Policy is the validated form of the rate_limit config section.
type Policy struct {
	enabled bool
	perUser Rule
	exempt  map[int64]struct{}
}

// NewPolicy parses cfg. A disabled section yields a policy that allows everything without
// looking at the rule.
func NewPolicy(cfg config.RateLimitConfig) (*Policy, error) {
	p := &Policy{enabled: cfg.Enabled, exempt: make(map[int64]struct{}, len(cfg.Whitelist))}
	for _, id := range cfg.Whitelist {
		p.exempt[id] = struct{}{}
	}
	if !cfg.Enabled {
		return p, nil
	}

	window, err := time.ParseDuration(cfg.PerUser.Window)
	if err != nil {
		return nil, fmt.Errorf("rate_limit.per_user.window: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate_limit.per_user.window must be positive, got %s", window)
	}
	if cfg.PerUser.Limit <= 0 {
		return nil, fmt.Errorf("rate_limit.per_user.limit must be positive, got %d", cfg.PerUser.Limit)
	}

	p.perUser = Rule{Limit: cfg.PerUser.Limit, Window: window}
	return p, nil
}

// Enabled reports whether inbound updates are throttled at all.
func (p *Policy) Enabled() bool {
	return p != nil && p.enabled
}

// Exempt reports whether userID bypasses rate limits.
func (p *Policy) Exempt(userID int64) bool {
	if p == nil {
		return false
	}
	_, ok := p.exempt[userID]
	return ok
}

// PerUser returns the rule applied to each sender.
func (p *Policy) PerUser() Rule {
	return p.perUser
}
