package config

import "time"

// Config holds runtime configuration for the quiz bot.
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	Logger      LoggerConfig      `mapstructure:"logger"`
	Bot         BotConfig         `mapstructure:"bot"`
	Quiz        QuizConfig        `mapstructure:"quiz"`
	I18n        I18nConfig        `mapstructure:"i18n"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Server      ServerConfig      `mapstructure:"server"`
	Sentry      SentryConfig      `mapstructure:"sentry"`
}

// LoggerConfig controls log level, format and optional rotating file output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
	Listen  string        `mapstructure:"listen" validate:"required_if=Mode webhook"`
	// AllowedChatID restricts the session to a single chat; 0 accepts every chat.
	AllowedChatID int64 `mapstructure:"allowed_chat_id"`
}

// QuizConfig configures the quiz session.
type QuizConfig struct {
	StartCommand  string `mapstructure:"start_command" validate:"required"`
	QuestionsFile string `mapstructure:"questions_file"`
	Language      string `mapstructure:"language"`
}

// I18nConfig points at the translation catalogs.
type I18nConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig configures the Redis connection. An empty Addr disables Redis-backed features.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=0"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// RateLimitRule describes a limit within a window such as "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures inbound rate limiting.
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	PerUser         RateLimitRule `mapstructure:"per_user"`
	Whitelist       []int64       `mapstructure:"whitelist"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// IdempotencyConfig configures duplicate-update suppression.
type IdempotencyConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ServerConfig configures the ops HTTP server exposing metrics and health.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}
