package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdown_RunsHooksInReverseOrder(t *testing.T) {
	s := NewShutdown(slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	for _, name := range []string{"redis", "ops-server", "bot"} {
		name := name
		s.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	s.Register("nil", nil)

	assert.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"bot", "ops-server", "redis"}, order)

	assert.NoError(t, s.Execute(context.Background()))
	assert.Len(t, order, 3)
}

func TestShutdown_JoinsErrorsAndContinues(t *testing.T) {
	s := NewShutdown(nil)
	errRedis := errors.New("redis close failed")
	ran := false

	s.Register("redis", func(context.Context) error { return errRedis })
	s.Register("bot", func(context.Context) error {
		ran = true
		return nil
	})

	err := s.Execute(context.Background())
	assert.ErrorIs(t, err, errRedis)
	assert.Contains(t, err.Error(), "redis:")
	assert.True(t, ran)
}
