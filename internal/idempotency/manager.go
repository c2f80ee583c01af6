// Package idempotency guarantees that a Telegram update is handled at most once,
// even when the transport redelivers it.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const defaultClaimTTL = 5 * time.Minute

var ErrRequestInProgress = errors.New("request with this key is already in progress")

type Operation func(ctx context.Context) error

type Result struct {
	// FromCache is true when the key had already been processed and fn was not called.
	FromCache bool
}

type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store    Store
	log      *slog.Logger
	claimTTL time.Duration
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:    store,
		log:      log,
		claimTTL: defaultClaimTTL,
	}
}

// Execute runs fn once per key. The key is marked completed even when fn fails: a handled
// update has already mutated state, so running it again would apply it twice.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	claimed, status, err := m.store.Claim(ctx, key, m.claimTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		if status == StatusCompleted {
			return &Result{FromCache: true}, nil
		}
		return nil, ErrRequestInProgress
	}

	opErr := fn(ctx)

	// The update has been applied; record that even if the caller's ctx is gone.
	if err := m.store.Complete(context.WithoutCancel(ctx), key, ttl); err != nil {
		m.log.Error("failed to mark update as processed", slog.String("key", key), slog.Any("error", err))
		if opErr == nil {
			return nil, err
		}
	}

	if opErr != nil {
		return nil, opErr
	}

	return &Result{}, nil
}
