package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return client, mr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_ExecutesOncePerKey(t *testing.T) {
	client, _ := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, testLogger()), testLogger())
	ctx := context.Background()

	calls := 0
	op := func(context.Context) error {
		calls++
		return nil
	}

	first, err := m.Execute(ctx, "msg:1:10", time.Hour, op)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := m.Execute(ctx, "msg:1:10", time.Hour, op)
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	_, err = m.Execute(ctx, "msg:1:11", time.Hour, op)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestManager_FailedOperationIsNotRepeated(t *testing.T) {
	client, _ := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, testLogger()), testLogger())
	ctx := context.Background()
	errHandler := errors.New("handler failed")

	calls := 0
	op := func(context.Context) error {
		calls++
		return errHandler
	}

	_, err := m.Execute(ctx, "msg:2:1", time.Hour, op)
	require.ErrorIs(t, err, errHandler)

	result, err := m.Execute(ctx, "msg:2:1", time.Hour, op)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 1, calls)
}

func TestManager_InProgress(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client, testLogger())
	m := NewManager(store, testLogger())
	ctx := context.Background()

	claimed, _, err := store.Claim(ctx, "msg:3:1", time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	_, err = m.Execute(ctx, "msg:3:1", time.Hour, func(context.Context) error {
		t.Fatal("operation must not run while another handler holds the key")
		return nil
	})
	assert.ErrorIs(t, err, ErrRequestInProgress)
}

func TestManager_NilOperation(t *testing.T) {
	client, _ := setupTestRedis(t)
	m := NewManager(NewRedisStore(client, testLogger()), nil)

	_, err := m.Execute(context.Background(), "k", time.Hour, nil)
	assert.Error(t, err)
}

func TestRedisStore_ClaimAndComplete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client, testLogger())
	ctx := context.Background()

	claimed, status, err := store.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, StatusProcessing, status)
	assert.Equal(t, time.Minute, mr.TTL(storeKey("k")))

	claimed, status, err = store.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, StatusProcessing, status)

	require.NoError(t, store.Complete(ctx, "k", time.Hour))
	claimed, status, err = store.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, time.Hour, mr.TTL(storeKey("k")))

	mr.FastForward(2 * time.Hour)
	claimed, _, err = store.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisStore_Unavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	m := NewManager(NewRedisStore(client, testLogger()), testLogger())
	_, err := m.Execute(context.Background(), "k", time.Hour, func(context.Context) error {
		t.Fatal("operation must not run without a claim")
		return nil
	})
	assert.Error(t, err)
}

func TestCleaner_RemovesKeysWithoutTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(keyPrefix+"orphan", "1"))
	require.NoError(t, mr.Set(keyPrefix+"fresh", "1"))
	mr.SetTTL(keyPrefix+"fresh", time.Hour)
	require.NoError(t, mr.Set(keyPrefix+"too-long", "1"))
	mr.SetTTL(keyPrefix+"too-long", 48*time.Hour)
	require.NoError(t, mr.Set("unrelated", "1"))

	c := NewCleaner(client, testLogger(), time.Minute, 25*time.Hour)
	removed := c.cleanup(ctx)

	assert.Equal(t, 2, removed)
	assert.False(t, mr.Exists(keyPrefix+"orphan"))
	assert.False(t, mr.Exists(keyPrefix+"too-long"))
	assert.True(t, mr.Exists(keyPrefix+"fresh"))
	assert.True(t, mr.Exists("unrelated"))
}

func TestMessageKey(t *testing.T) {
	assert.Equal(t, "msg:-100123:42", MessageKey(-100123, 42))
	assert.NotEqual(t, MessageKey(1, 23), MessageKey(12, 3))
}
