package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, env, content string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(content), 0o600))
	return dir
}

func TestLoadFromDir_FileAndDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("BOT_TOKEN", "secret-token")

	dir := writeConfig(t, "test", `
logger:
  level: debug
  format: text
quiz:
  start_command: "!quiz"
  language: ja
rate_limit:
  per_user:
    limit: 5
    window: 10s
`)

	cfg, v, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "secret-token", cfg.Bot.Token)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, 10*time.Second, cfg.Bot.Timeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, "!quiz", cfg.Quiz.StartCommand)
	assert.Equal(t, "ja", cfg.Quiz.Language)
	assert.Equal(t, 5, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, "10s", cfg.RateLimit.PerUser.Window)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadFromDir_DefaultStartCommand(t *testing.T) {
	t.Setenv("APP_ENV", "missing")
	t.Setenv("BOT_TOKEN", "secret-token")

	cfg, _, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "q!", cfg.Quiz.StartCommand)
	assert.Empty(t, cfg.Quiz.QuestionsFile)
}

func TestLoadFromDir_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		token   string
		content string
	}{
		{name: "missing token", token: "", content: "logger:\n  level: info\n"},
		{name: "unknown log level", token: "t", content: "logger:\n  level: loud\n"},
		{name: "webhook without listen", token: "t", content: "bot:\n  mode: webhook\n"},
		{name: "sentry without dsn", token: "t", content: "sentry:\n  enabled: true\n"},
		{name: "broken yaml", token: "t", content: "logger: [\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "test")
			t.Setenv("BOT_TOKEN", tc.token)
			t.Setenv("TELEGRAM_BOT_TOKEN", "")

			_, _, err := LoadFromDir(writeConfig(t, "test", tc.content))
			assert.Error(t, err)
		})
	}
}
