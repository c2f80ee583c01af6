package errors

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy bounds WithRetry. Attempts includes the first call.
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts:       4,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	Multiplier:     2.0,
}

// WithRetry calls fn until it succeeds, returns an error that is not retryable, or runs out of
// attempts. fn receives the 1-based attempt number. Outbound chat sends must not go through
// here: a retried send can deliver the same question twice.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(attempt int) error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attempts := max(policy.Attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(ctxErr, err)
		}

		err = fn(attempt)
		if err == nil || !IsRetryable(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}

	return err
}

// IsRetryable reports whether err carries an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr != nil && appErr.Retryable
}

// backoff returns the pause after the given failed attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := time.Duration(float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt-1)))
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}
