package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	StoreBackendNotion        = "notion"
	StoreBackendPostgres      = "postgres"
	StoreBackendElasticsearch = "elasticsearch"

	NotificationProviderSNS = "sns"
	NotificationProviderSES = "ses"
)

// Load reads configs/config.yaml, the APP_ENVIRONMENT overlay and the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setIfEmpty(&cfg.Telegram.WebhookSecret, "WEBHOOK_SECRET")
	setIfEmpty(&cfg.Telegram.WebhookURL, "WEBHOOK_URL")

	setIfEmpty(&cfg.Store.Notion.Token, "NOTION_TOKEN")
	setIfEmpty(&cfg.Store.Notion.OffersDatabaseID, "OFFERS_DATABASE_ID")
	setIfEmpty(&cfg.Store.Notion.AdvertisersDatabaseID, "ADVERTISERS_DATABASE_ID")

	setIfEmpty(&cfg.Database.Redis.Address, "REDIS_URL")
	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func setIfEmpty(target *string, envKey string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*target = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "deal-bot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.WebhookPath == "" {
		cfg.Server.WebhookPath = "/api/telegram"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 110000
	}
	if cfg.Server.MaxRequestBodyKiB == 0 {
		cfg.Server.MaxRequestBodyKiB = 256
	}

	if cfg.Telegram.APIBaseURL == "" {
		cfg.Telegram.APIBaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.Timeout == 0 {
		cfg.Telegram.Timeout = 10000
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = SessionBackendMemory
	}
	if cfg.Session.TTLSeconds == 0 {
		cfg.Session.TTLSeconds = 1800
	}
	if cfg.Session.LockTTL == 0 {
		cfg.Session.LockTTL = 120000
	}
	if cfg.Session.LockWait == 0 {
		cfg.Session.LockWait = 10000
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "deal-session"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.Table == "" {
		cfg.Database.Postgres.Table = "offers"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL != "" {
		cfg.Database.Elasticsearch.Addresses = []string{cfg.Database.Elasticsearch.URL}
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "deals"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreBackendNotion
	}
	if cfg.Store.MinInterval == 0 {
		cfg.Store.MinInterval = 500
	}
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 30000
	}
	if cfg.Store.Notion.BaseURL == "" {
		cfg.Store.Notion.BaseURL = "https://api.notion.com/v1"
	}
	if cfg.Store.Notion.Version == "" {
		cfg.Store.Notion.Version = "2022-06-28"
	}

	if cfg.Pipeline.MaxDeals == 0 {
		cfg.Pipeline.MaxDeals = 50
	}
	if cfg.Pipeline.MaxMessageLength == 0 {
		cfg.Pipeline.MaxMessageLength = 10000
	}
	if cfg.Pipeline.StaleAfterSeconds == 0 {
		cfg.Pipeline.StaleAfterSeconds = 30
	}
	if cfg.Pipeline.WarningPause == 0 {
		cfg.Pipeline.WarningPause = 3000
	}
	if cfg.Pipeline.MessageChunkSize == 0 {
		cfg.Pipeline.MessageChunkSize = 4096
	}
	if cfg.Pipeline.GeoRegistryPath == "" {
		cfg.Pipeline.GeoRegistryPath = "configs/geo-registry.json"
	}

	if cfg.Notifications.Provider == "" {
		cfg.Notifications.Provider = NotificationProviderSNS
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig rejects configurations the bot cannot start with.
func validateConfig(cfg *Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	switch cfg.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis session backend")
		}
	default:
		return fmt.Errorf("session.backend %q is not supported", cfg.Session.Backend)
	}

	switch cfg.Store.Backend {
	case StoreBackendNotion:
		if cfg.Store.Notion.Token == "" {
			return fmt.Errorf("store.notion.token is required")
		}
		if cfg.Store.Notion.OffersDatabaseID == "" {
			return fmt.Errorf("store.notion.offers_database_id is required")
		}
	case StoreBackendPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case StoreBackendElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses or url is required")
		}
	default:
		return fmt.Errorf("store.backend %q is not supported", cfg.Store.Backend)
	}

	if cfg.Notifications.Enabled {
		switch cfg.Notifications.Provider {
		case NotificationProviderSNS:
			if cfg.Notifications.SNS.TopicARN == "" {
				return fmt.Errorf("notifications.sns.topic_arn is required")
			}
		case NotificationProviderSES:
			if cfg.Notifications.SES.FromEmail == "" || len(cfg.Notifications.SES.ToEmails) == 0 {
				return fmt.Errorf("notifications.ses.from_email and to_emails are required")
			}
		default:
			return fmt.Errorf("notifications.provider %q is not supported", cfg.Notifications.Provider)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
