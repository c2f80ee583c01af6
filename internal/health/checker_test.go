package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func telegramReturning(err error) *mockTelegram {
	m := &mockTelegram{}
	m.On("Ping", mock.Anything).Return(err)
	return m
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewChecker(testLogger())
	c.AddCheck("redis", NewRedisChecker(client))
	telegram := telegramReturning(nil)
	c.AddCheck("telegram", NewTelegramChecker(telegram))
	c.AddInfo("quiz", func() any { return map[string]string{"state": "initialized"} })
	c.AddCheck("", CheckFunc(func(context.Context) error { return nil }))

	report := c.Check(context.Background())

	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, map[string]string{"redis": "ok", "telegram": "ok"}, report.Checks)
	assert.Contains(t, report.Info, "quiz")
	assert.Equal(t, []string{"redis", "telegram"}, c.Names())
	telegram.AssertNumberOfCalls(t, "Ping", 1)
}

func TestChecker_Degraded(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	c := NewChecker(testLogger())
	c.AddCheck("redis", NewRedisChecker(client))
	c.AddCheck("telegram", NewTelegramChecker(telegramReturning(errors.New("unauthorized"))))

	report := c.Check(context.Background())

	assert.Equal(t, "degraded", report.Status)
	assert.NotEqual(t, "ok", report.Checks["redis"])
	assert.Equal(t, "unauthorized", report.Checks["telegram"])
}

func TestChecker_NilComponents(t *testing.T) {
	assert.Error(t, NewRedisChecker(nil).HealthCheck(context.Background()))
	assert.Error(t, NewTelegramChecker(nil).HealthCheck(context.Background()))
}

func TestChecker_Handler(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("quiz", CheckFunc(func(context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "ok", report.Status)

	c.AddCheck("telegram", NewTelegramChecker(telegramReturning(errors.New("down"))))
	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestChecker_SlowInfoDoesNotBlockRegistration(t *testing.T) {
	c := NewChecker(testLogger())

	entered := make(chan struct{})
	release := make(chan struct{})
	c.AddInfo("quiz", func() any {
		close(entered)
		<-release
		return "awaiting_answer"
	})

	done := make(chan Report, 1)
	go func() { done <- c.Check(context.Background()) }()
	<-entered

	registered := make(chan struct{})
	go func() {
		c.AddCheck("redis", CheckFunc(func(context.Context) error { return nil }))
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("AddCheck blocked while an info provider was running")
	}

	close(release)
	report := <-done
	assert.Equal(t, "awaiting_answer", report.Info["quiz"])
}
