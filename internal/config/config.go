// Package config loads service configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	LLM           LLMConfig           `yaml:"llm"`
	Routing       RoutingConfig       `yaml:"routing"`
	Escalation    EscalationConfig    `yaml:"escalation"`
	Events        EventsConfig        `yaml:"events"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type LLMConfig struct {
	Provider       string        `yaml:"provider"` // openrouter or gemini
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	GeminiAPIKey   string        `yaml:"gemini_api_key"`
	GeminiModel    string        `yaml:"gemini_model"`
	Referer        string        `yaml:"referer"`
	Title          string        `yaml:"title"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

type RoutingConfig struct {
	FAQThreshold         float64 `yaml:"faq_threshold"`
	RelatednessThreshold float64 `yaml:"relatedness_threshold"`
	MaxContextMessages   int     `yaml:"max_context_messages"`
	MaxTurnChars         int     `yaml:"max_turn_chars"`
	MaxMessageLength     int     `yaml:"max_message_length"`
}

type EscalationConfig struct {
	SupportEmail    string   `yaml:"support_email"`
	UrgentKeywords  []string `yaml:"urgent_keywords"`
	ContextMessages int      `yaml:"context_messages"`
}

type EventsConfig struct {
	Driver string      `yaml:"driver"` // none, kafka or redis
	Kafka  KafkaConfig `yaml:"kafka"`
	Redis  RedisConfig `yaml:"redis"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
}

type RateLimitConfig struct {
	MessagesPerSecond float64 `yaml:"messages_per_second"`
	MessageBurst      int     `yaml:"message_burst"`
	AdminPerSecond    float64 `yaml:"admin_per_second"`
	AdminBurst        int     `yaml:"admin_burst"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Debug   bool   `yaml:"debug"`
}

type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads .env (if present), the YAML file at path (if non-empty) and the
// environment, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     90 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxBodyBytes:     1 << 20,
			MaxUploadBytes:   10 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "supportbot.db"},
			Postgres: PostgresConfig{
				MaxConns:        10,
				MinConns:        2,
				ConnMaxLifetime: time.Hour,
				ConnMaxIdleTime: 30 * time.Minute,
			},
		},
		LLM: LLMConfig{
			Provider:       "openrouter",
			BaseURL:        "https://openrouter.ai/api/v1",
			Model:          "openai/gpt-oss-20b:free",
			GeminiModel:    "gemini-2.0-flash",
			Referer:        "http://localhost:8000",
			Title:          "Customer Support Chatbot",
			Timeout:        30 * time.Second,
			MaxRetries:     0,
			InitialBackoff: 500 * time.Millisecond,
		},
		Routing: RoutingConfig{
			FAQThreshold:         0.5,
			RelatednessThreshold: 0.6,
			MaxContextMessages:   10,
			MaxTurnChars:         1000,
			MaxMessageLength:     5000,
		},
		Escalation: EscalationConfig{
			SupportEmail: "support@example.com",
			UrgentKeywords: []string{
				"urgent", "emergency", "critical", "problem", "bug", "error",
				"broken", "not working", "complaint", "refund", "cancel", "angry",
			},
			ContextMessages: 5,
		},
		Events: EventsConfig{
			Driver: "none",
			Kafka:  KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "support.escalations"},
			Redis:  RedisConfig{Addr: "localhost:6379", Channel: "support.escalations"},
		},
		Auth: AuthConfig{
			TokenTTL:      24 * time.Hour,
			AdminUsername: "admin",
		},
		RateLimit: RateLimitConfig{
			MessagesPerSecond: 1,
			MessageBurst:      5,
			AdminPerSecond:    5,
			AdminBurst:        10,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "supportbot",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "API_HOST")
	setInt(&cfg.Server.Port, "API_PORT")

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.SQLite.Path, "SQLITE_PATH")
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		switch {
		case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = dsn
		case strings.HasPrefix(dsn, "sqlite://"):
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite://"), "/")
		}
	}

	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.APIKey, "OPENROUTER_API_KEY")
	setString(&cfg.LLM.BaseURL, "OPENROUTER_BASE_URL")
	setString(&cfg.LLM.Model, "OPENROUTER_MODEL")
	setString(&cfg.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.GeminiModel, "GEMINI_MODEL")
	setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT")
	setInt(&cfg.LLM.MaxRetries, "LLM_MAX_RETRIES")

	setFloat(&cfg.Routing.FAQThreshold, "FAQ_THRESHOLD")
	setFloat(&cfg.Routing.RelatednessThreshold, "RELATEDNESS_THRESHOLD")
	setInt(&cfg.Routing.MaxContextMessages, "MAX_CONTEXT_MESSAGES")
	setString(&cfg.Escalation.SupportEmail, "SUPPORT_EMAIL")

	setString(&cfg.Events.Driver, "EVENTS_DRIVER")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.Kafka.Brokers = splitList(v)
	}
	setString(&cfg.Events.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Events.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Events.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Events.Redis.Channel, "REDIS_CHANNEL")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.AdminUsername, "ADMIN_USERNAME")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
		cfg.Telegram.Enabled = true
	}

	setString(&cfg.Observability.LogLevel, "LOG_LEVEL")
	setString(&cfg.Observability.LogFormat, "LOG_FORMAT")
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return errors.New("postgres dsn is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}
	if c.LLM.Provider != "openrouter" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 5 {
		return fmt.Errorf("llm max_retries must be between 0 and 5")
	}
	if !unit(c.Routing.FAQThreshold) || !unit(c.Routing.RelatednessThreshold) {
		return fmt.Errorf("routing thresholds must be within (0, 1]")
	}
	if c.Routing.MaxContextMessages < 1 {
		return fmt.Errorf("max_context_messages must be positive")
	}
	switch c.Events.Driver {
	case "none", "":
	case "kafka":
		if len(c.Events.Kafka.Brokers) == 0 || c.Events.Kafka.Topic == "" {
			return errors.New("kafka events need brokers and a topic")
		}
	case "redis":
		if c.Events.Redis.Addr == "" || c.Events.Redis.Channel == "" {
			return errors.New("redis events need an address and a channel")
		}
	default:
		return fmt.Errorf("invalid events driver: %s", c.Events.Driver)
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return errors.New("telegram is enabled without a token")
	}
	return nil
}

func unit(v float64) bool {
	return v > 0 && v <= 1
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setFloat(dst *float64, key string) {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
