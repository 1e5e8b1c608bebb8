package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.NotEmpty(t, cfg.DatabaseDSN)
		assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
		assert.Equal(t, DefaultChatIdleTimeout, cfg.ChatIdleTimeout)
		assert.Equal(t, DefaultChatHistoryLimit, cfg.ChatHistoryLimit)
		assert.True(t, cfg.Migrate)
		assert.False(t, cfg.Dev)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("WORKHUB_ADDR", ":9000")
		t.Setenv("WORKHUB_DATABASE_DSN", "postgres://localhost/test")
		t.Setenv("WORKHUB_SIGNING_KEY", "c29tZV9zZWNyZXQ=")
		t.Setenv("WORKHUB_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8081")
		t.Setenv("WORKHUB_CHAT_IDLE_TIMEOUT", "90s")
		t.Setenv("WORKHUB_CHAT_HISTORY_LIMIT", "50")
		t.Setenv("WORKHUB_MIGRATE", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":9000", cfg.ServerAddr)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseDSN)
		assert.Equal(t, "c29tZV9zZWNyZXQ=", cfg.SigningSecret)
		assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8081"}, cfg.AllowedOrigins)
		assert.Equal(t, 90*time.Second, cfg.ChatIdleTimeout)
		assert.Equal(t, 50, cfg.ChatHistoryLimit)
		assert.False(t, cfg.Migrate)
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("WORKHUB_TOKEN_TTL", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerAddr:       "localhost:8080",
			DatabaseDSN:      "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable",
			SigningSecret:    "c29tZV9zZWNyZXQ=",
			TokenTTL:         time.Hour,
			ChatIdleTimeout:  DefaultChatIdleTimeout,
			ChatHistoryLimit: DefaultChatHistoryLimit,
		}
	}

	tcases := []struct {
		name   string
		modify func(c *Config)
		err    bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
			err:    false,
		},
		{
			name:   "empty address",
			modify: func(c *Config) { c.ServerAddr = "" },
			err:    true,
		},
		{
			name:   "empty DSN",
			modify: func(c *Config) { c.DatabaseDSN = "" },
			err:    true,
		},
		{
			name:   "empty signing key",
			modify: func(c *Config) { c.SigningSecret = "" },
			err:    true,
		},
		{
			name:   "invalid signing key",
			modify: func(c *Config) { c.SigningSecret = "invalid_base64" },
			err:    true,
		},
		{
			name:   "zero token ttl",
			modify: func(c *Config) { c.TokenTTL = 0 },
			err:    true,
		},
		{
			name:   "negative idle timeout",
			modify: func(c *Config) { c.ChatIdleTimeout = -time.Second },
			err:    true,
		},
		{
			name:   "zero history limit",
			modify: func(c *Config) { c.ChatHistoryLimit = 0 },
			err:    true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.modify(cfg)

			err := cfg.Validate()
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)
			assert.Equal(t, []byte("some_secret"), cfg.SigningKey, "expected signing key to be decoded")
		})
	}
}

func Test_decodeSigningSecret(t *testing.T) {
	tcases := []struct {
		name         string
		base64Secret string
		expectedKey  []byte
		expectError  bool
	}{
		{
			name:         "valid base64 secret",
			base64Secret: "c29tZV9zZWNyZXQ=",
			expectedKey:  []byte("some_secret"),
			expectError:  false,
		},
		{
			name:         "invalid base64 secret",
			base64Secret: "invalid_base64",
			expectedKey:  nil,
			expectError:  true,
		},
		{
			name:         "empty base64 secret",
			base64Secret: "",
			expectedKey:  nil,
			expectError:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := decodeSigningSecret(tc.base64Secret)
			if tc.expectError {
				assert.Error(t, err, "expected error for base64 secret: %s", tc.base64Secret)
			} else {
				assert.NoError(t, err, "expected no error for base64 secret: %s", tc.base64Secret)
				assert.Equal(t, tc.expectedKey, key, "expected decoded key to match for base64 secret: %s", tc.base64Secret)
			}
		})
	}
}
