package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Telegram      TelegramConfig     `mapstructure:"telegram"`
	Session       SessionConfig      `mapstructure:"session"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Store         StoreConfig        `mapstructure:"store"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address           string `mapstructure:"address"`
	WebhookPath       string `mapstructure:"webhook_path"`
	ReadTimeout       int    `mapstructure:"read_timeout_ms"`
	WriteTimeout      int    `mapstructure:"write_timeout_ms"`
	ShutdownTimeout   int    `mapstructure:"shutdown_timeout_ms"`
	RequestTimeout    int    `mapstructure:"request_timeout_ms"`
	MaxRequestBodyKiB int    `mapstructure:"max_request_body_kib"`
}

type TelegramConfig struct {
	BotToken      string `mapstructure:"bot_token"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	WebhookURL    string `mapstructure:"webhook_url"`
	APIBaseURL    string `mapstructure:"api_base_url"`
	Timeout       int    `mapstructure:"timeout_ms"`
}

// SessionConfig selects where conversation state lives and how it is locked.
type SessionConfig struct {
	Backend    string `mapstructure:"backend"` // memory | redis
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	LockTTL    int    `mapstructure:"lock_ttl_ms"`
	LockWait   int    `mapstructure:"lock_wait_ms"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
	Index     string   `mapstructure:"index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StoreConfig selects the record store deals are submitted to.
type StoreConfig struct {
	Backend     string       `mapstructure:"backend"` // notion | postgres | elasticsearch
	MinInterval int          `mapstructure:"min_interval_ms"`
	Timeout     int          `mapstructure:"timeout_ms"`
	Notion      NotionConfig `mapstructure:"notion"`
}

type NotionConfig struct {
	Token                 string `mapstructure:"token"`
	OffersDatabaseID      string `mapstructure:"offers_database_id"`
	AdvertisersDatabaseID string `mapstructure:"advertisers_database_id"`
	BaseURL               string `mapstructure:"base_url"`
	Version               string `mapstructure:"version"`
}

// PipelineConfig holds the limits applied to incoming deal messages.
type PipelineConfig struct {
	MaxDeals          int    `mapstructure:"max_deals"`
	MaxMessageLength  int    `mapstructure:"max_message_length"`
	StaleAfterSeconds int    `mapstructure:"stale_after_seconds"`
	WarningPause      int    `mapstructure:"warning_pause_ms"`
	MessageChunkSize  int    `mapstructure:"message_chunk_size"`
	GeoRegistryPath   string `mapstructure:"geo_registry_path"`
}

func (p PipelineConfig) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterSeconds) * time.Second
}

type NotificationConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"` // sns | ses
	AWS      struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		FromEmail string   `mapstructure:"from_email"`
		ToEmails  []string `mapstructure:"to_emails"`
	} `mapstructure:"ses"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
