package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.With(slog.String("bot_token", "123:abc")).Info("starting",
		slog.String("Token", "123:abc"),
		slog.Group("redis", slog.String("password", "hunter2"), slog.String("addr", "localhost:6379")),
		slog.String("chat", "general"),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "***", entry["bot_token"])
	assert.Equal(t, "***", entry["Token"])
	assert.Equal(t, "general", entry["chat"])

	group, ok := entry["redis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", group["password"])
	assert.Equal(t, "localhost:6379", group["addr"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestMaskingHandler_ScrubsBotTokens(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewTextHandler(&buf, nil)))

	const token = "123456789:AAHfiqksKZ8WmR2zSjiQ7_v4TMAKdiHm9T0"
	url := "https://api.telegram.org/bot" + token + "/sendMessage"

	log.Warn("send failed at "+url,
		slog.Any("error", errors.New("Post \""+url+"\": timeout")),
		slog.String("endpoint", url),
	)

	out := buf.String()
	assert.NotContains(t, out, token)
	assert.Contains(t, out, "bot***/sendMessage")
	assert.Contains(t, out, "timeout")
}

func TestFanoutHandler_RespectsLevels(t *testing.T) {
	var infoBuf, errorBuf bytes.Buffer
	log := slog.New(NewFanoutHandler(
		slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	))

	log.Info("answer recorded")
	log.Error("send failed")

	assert.Contains(t, infoBuf.String(), "answer recorded")
	assert.Contains(t, infoBuf.String(), "send failed")
	assert.NotContains(t, errorBuf.String(), "answer recorded")
	assert.Contains(t, errorBuf.String(), "send failed")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected slog.Level
	}{
		{in: "debug", expected: slog.LevelDebug},
		{in: "INFO", expected: slog.LevelInfo},
		{in: "warn", expected: slog.LevelWarn},
		{in: "error", expected: slog.LevelError},
		{in: "", expected: slog.LevelInfo},
		{in: "verbose", expected: slog.LevelInfo},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ParseLevel(tc.in), tc.in)
	}
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background(), "fixed")
	assert.Equal(t, "fixed", CorrelationIDFromContext(ctx))

	generated := CorrelationIDFromContext(WithCorrelationID(context.Background(), ""))
	assert.Len(t, generated, 36)
}

func TestMiddleware_InjectsCorrelationID(t *testing.T) {
	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "from-header")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "from-header", seen)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "from-header", seen)
}
