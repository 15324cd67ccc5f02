// Pacote config centraliza o carregamento da configuracao usada pelos binarios.
package config

import (
	"fmt"
	"time"

	"github.com/marcelojr/placar-show/internal/platform/retry"
)

// Config agrega todos os parametros necessarios para API, worker e CLI.
type Config struct {
	HTTPAddress string `koanf:"http_address" validate:"required"`
	LogLevel    string `koanf:"log_level"`

	StoreBackend          string `koanf:"store_backend" validate:"oneof=redis memory"`
	StoreKeyPrefix        string `koanf:"store_key_prefix" validate:"required"`
	StoreRetryMaxAttempts int    `koanf:"store_retry_max_attempts" validate:"gte=0"`
	StoreRetryBaseDelayMS int    `koanf:"store_retry_base_delay_ms" validate:"gte=0"`
	StoreRetryMaxDelayMS  int    `koanf:"store_retry_max_delay_ms" validate:"gte=0"`
	StoreResyncSeconds    int    `koanf:"store_resync_seconds" validate:"gte=0"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
	RedisPoolSize int    `koanf:"redis_pool_size" validate:"gte=0"`

	DatabaseDriver   string `koanf:"database_driver" validate:"oneof=sqlite postgres"`
	SQLitePath       string `koanf:"sqlite_path"`
	PostgresHost     string `koanf:"postgres_host"`
	PostgresPort     string `koanf:"postgres_port"`
	PostgresUser     string `koanf:"postgres_user"`
	PostgresPassword string `koanf:"postgres_password"`
	PostgresDB       string `koanf:"postgres_db"`
	PostgresSSLMode  string `koanf:"postgres_sslmode"`
	AutoMigrate      bool   `koanf:"auto_migrate"`

	AdminPassword   string `koanf:"admin_password" validate:"required"`
	DraftDebounceMS int    `koanf:"draft_debounce_ms" validate:"gt=0"`

	SuggestProvider       string `koanf:"suggest_provider" validate:"oneof=google openai anthropic none"`
	SuggestAPIKey         string `koanf:"suggest_api_key"`
	SuggestModel          string `koanf:"suggest_model"`
	SuggestTimeoutSeconds int    `koanf:"suggest_timeout_seconds" validate:"gt=0"`
	SuggestPerMinute      int    `koanf:"suggest_per_minute" validate:"gte=0"`

	RateLimitEnabled       bool   `koanf:"rate_limit_enabled"`
	RateLimitMaxActions    int    `koanf:"rate_limit_max"`
	RateLimitWindowSeconds int    `koanf:"rate_limit_window_seconds"`
	RateLimitKeyPrefix     string `koanf:"rate_limit_prefix"`

	WorkerMetricsAddress string `koanf:"worker_metrics_address"`
	SweepIntervalSeconds int    `koanf:"sweep_interval_seconds" validate:"gt=0"`
}

// Default prioriza execucao local: Redis em localhost e sqlite em arquivo.
func Default() Config {
	return Config{
		HTTPAddress:            ":8080",
		LogLevel:               "info",
		StoreBackend:           "redis",
		StoreKeyPrefix:         "placar",
		StoreRetryMaxAttempts:  3,
		StoreRetryBaseDelayMS:  100,
		StoreRetryMaxDelayMS:   2000,
		StoreResyncSeconds:     15,
		RedisAddr:              "localhost:6379",
		RedisPoolSize:          50,
		DatabaseDriver:         "sqlite",
		SQLitePath:             "placar.db",
		PostgresHost:           "localhost",
		PostgresPort:           "5432",
		PostgresUser:           "placar",
		PostgresPassword:       "placar",
		PostgresDB:             "placar",
		PostgresSSLMode:        "disable",
		AutoMigrate:            true,
		AdminPassword:          "admin@123",
		DraftDebounceMS:        500,
		SuggestProvider:        "google",
		SuggestModel:           "",
		SuggestTimeoutSeconds:  10,
		SuggestPerMinute:       60,
		RateLimitEnabled:       true,
		RateLimitMaxActions:    10,
		RateLimitWindowSeconds: 60,
		RateLimitKeyPrefix:     "placar:ratelimit",
		WorkerMetricsAddress:   ":9090",
		SweepIntervalSeconds:   60,
	}
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

// DatabaseDSN devolve o DSN do driver escolhido para rascunhos e sessoes.
func (c Config) DatabaseDSN() string {
	if c.DatabaseDriver == "postgres" {
		return c.PostgresDSN()
	}
	return c.SQLitePath
}

func (c Config) DraftDebounce() time.Duration {
	return time.Duration(c.DraftDebounceMS) * time.Millisecond
}

func (c Config) SuggestTimeout() time.Duration {
	return time.Duration(c.SuggestTimeoutSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c Config) StoreResync() time.Duration {
	return time.Duration(c.StoreResyncSeconds) * time.Second
}

func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c Config) StoreRetry() retry.Config {
	return retry.Config{
		MaxAttempts:   c.StoreRetryMaxAttempts,
		BaseDelay:     time.Duration(c.StoreRetryBaseDelayMS) * time.Millisecond,
		MaxDelay:      time.Duration(c.StoreRetryMaxDelayMS) * time.Millisecond,
		JitterPercent: retry.DefaultJitterPercent,
	}
}
