package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.Routing.FAQThreshold)
	assert.Equal(t, 0.6, cfg.Routing.RelatednessThreshold)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "supportbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
routing:
  faq_threshold: 0.7
llm:
  timeout: 5s
events:
  driver: kafka
  kafka:
    topic: tickets
`), 0o600))

	t.Setenv("RELATEDNESS_THRESHOLD", "0.65")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/support?sslmode=disable")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Routing.FAQThreshold)
	assert.Equal(t, 0.65, cfg.Routing.RelatednessThreshold)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, "tickets", cfg.Events.Kafka.Topic)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/support?sslmode=disable", cfg.Database.Postgres.DSN)
	// untouched sections keep defaults
	assert.Equal(t, 10, cfg.Routing.MaxContextMessages)
}

func TestLoad_SQLiteURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:///./data/chat.db")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/chat.db", cfg.Database.SQLite.Path)
}

func TestLoad_TelegramTokenEnablesChannel(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Telegram.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"bad provider", func(c *Config) { c.LLM.Provider = "local" }},
		{"threshold above one", func(c *Config) { c.Routing.FAQThreshold = 1.2 }},
		{"zero relatedness", func(c *Config) { c.Routing.RelatednessThreshold = 0 }},
		{"too many retries", func(c *Config) { c.LLM.MaxRetries = 9 }},
		{"redis without channel", func(c *Config) { c.Events.Driver = "redis"; c.Events.Redis.Channel = "" }},
		{"unknown events driver", func(c *Config) { c.Events.Driver = "nats" }},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
