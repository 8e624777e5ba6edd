// Package config loads relay configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the relay server.
type Config struct {
	Server  ServerConfig
	Webhook WebhookConfig
	AI      AIConfig
	Broker  BrokerConfig
	Store   StoreConfig
}

// ServerConfig covers the HTTP listener. Port is also the base for the
// fabric port derivation (publish = Port+1, reply = Port+2).
type ServerConfig struct {
	Port      int
	Env       string
	PublicURL string
}

type WebhookConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type BrokerConfig struct {
	BindHost    string
	NotifyDelay time.Duration
}

type StoreConfig struct {
	MaxAge          time.Duration
	CleanupInterval time.Duration
}

// Load reads configuration from environment variables and returns a
// validated Config. Returns a descriptive error if any value is invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:      envInt("PORT", 4000),
			Env:       envString("ENV", "development"),
			PublicURL: envString("SERVER_URL", "http://localhost:4000"),
		},
		Webhook: WebhookConfig{
			BaseURL: envString("WEBHOOK_BASE_URL", "https://ping.telex.im/v1/webhooks"),
			Timeout: envDuration("WEBHOOK_TIMEOUT", 15*time.Second),
		},
		AI: AIConfig{
			BaseURL: envString("AI_SERVER_URL", "http://localhost:4111"),
			Timeout: envDuration("AI_TIMEOUT", 30*time.Second),
		},
		Broker: BrokerConfig{
			BindHost:    envString("ZMQ_BIND_HOST", "0.0.0.0"),
			NotifyDelay: envDuration("NOTIFY_DELAY", time.Second),
		},
		Store: StoreConfig{
			MaxAge:          envDuration("STORE_MAX_AGE", 24*time.Hour),
			CleanupInterval: envDuration("STORE_CLEANUP_INTERVAL", time.Hour),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	// Port+2 must still be a valid TCP port for the reply endpoint.
	if c.Server.Port < 1 || c.Server.Port > 65533 {
		return fmt.Errorf("PORT must be between 1 and 65533, got %d", c.Server.Port)
	}

	if err := validateURL("WEBHOOK_BASE_URL", c.Webhook.BaseURL); err != nil {
		return err
	}
	if err := validateURL("AI_SERVER_URL", c.AI.BaseURL); err != nil {
		return err
	}
	if err := validateURL("SERVER_URL", c.Server.PublicURL); err != nil {
		return err
	}

	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive")
	}
	if c.Broker.NotifyDelay < 0 {
		return fmt.Errorf("NOTIFY_DELAY must not be negative")
	}
	if c.Store.MaxAge <= 0 {
		return fmt.Errorf("STORE_MAX_AGE must be positive")
	}
	if c.Store.CleanupInterval <= 0 {
		return fmt.Errorf("STORE_CLEANUP_INTERVAL must be positive")
	}

	return nil
}

func validateURL(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", key)
	}
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return fmt.Errorf("%s must start with http:// or https://, got %q", key, value)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
