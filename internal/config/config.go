package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultChatIdleTimeout  = 300 * time.Second
	DefaultChatHistoryLimit = 20
)

type Config struct {
	ServerAddr       string        `env:"WORKHUB_ADDR" envDefault:"localhost:8000"`
	DatabaseDSN      string        `env:"WORKHUB_DATABASE_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=workhub sslmode=disable"`
	SigningSecret    string        `env:"WORKHUB_SIGNING_KEY"`
	AllowedOrigins   []string      `env:"WORKHUB_ALLOWED_ORIGINS" envSeparator:","`
	TokenTTL         time.Duration `env:"WORKHUB_TOKEN_TTL" envDefault:"30m"`
	ChatIdleTimeout  time.Duration `env:"WORKHUB_CHAT_IDLE_TIMEOUT" envDefault:"300s"`
	ChatHistoryLimit int           `env:"WORKHUB_CHAT_HISTORY_LIMIT" envDefault:"20"`
	Migrate          bool          `env:"WORKHUB_MIGRATE" envDefault:"true"`
	Dev              bool          `env:"WORKHUB_DEV"`

	// SigningKey is the decoded form of SigningSecret, set by Validate.
	SigningKey []byte
}

// Load reads the configuration from the environment. Callers may override
// individual fields (e.g. from flags) before calling Validate.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	return base64.StdEncoding.DecodeString(base64Secret)
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.ChatIdleTimeout <= 0 {
		return fmt.Errorf("chat idle timeout must be positive")
	}
	if c.ChatHistoryLimit <= 0 {
		return fmt.Errorf("chat history limit must be positive")
	}

	signingKey, err := decodeSigningSecret(c.SigningSecret)
	if err != nil {
		return fmt.Errorf("decode signing secret: %w", err)
	}
	c.SigningKey = signingKey

	return nil
}
