// Package config loads and validates process configuration from the
// environment, with optional .env file support for local development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	BrokerRedis = "redis"
	BrokerNATS  = "nats"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"5000"`
	ClientURL   string `env:"CLIENT_URL" default:"http://localhost:5173"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// Broker selects the change-event bus backing the cross-instance
	// broadcast: "redis" (default) or "nats".
	Broker  string `env:"BROKER" default:"redis"`
	NatsURL string `env:"NATS_URL"`

	FeedCacheTTL time.Duration `env:"FEED_CACHE_TTL" default:"10s"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`

	APIRatePerSecond float64 `env:"API_RATE_PER_SECOND" default:"20"`
	APIRateBurst     int     `env:"API_RATE_BURST" default:"40"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
		"JWT_SECRET":   cfg.JWTSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	switch cfg.Broker {
	case BrokerRedis:
	case BrokerNATS:
		if cfg.NatsURL == "" {
			return fmt.Errorf("NATS_URL is required when BROKER is nats")
		}
	default:
		return fmt.Errorf("BROKER must be %q or %q, got %q", BrokerRedis, BrokerNATS, cfg.Broker)
	}

	if cfg.FeedCacheTTL <= 0 {
		return fmt.Errorf("FEED_CACHE_TTL must be positive, got %s", cfg.FeedCacheTTL)
	}

	if cfg.APIRatePerSecond <= 0 || cfg.APIRateBurst <= 0 {
		return fmt.Errorf("API_RATE_PER_SECOND and API_RATE_BURST must be positive")
	}

	return nil
}
