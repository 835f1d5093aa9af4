package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Shopify  ShopifyConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Jobs     JobsConfig
	Defaults DefaultSettingsConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
	FilePath          string
	MaxSizeMB         int
	MaxBackups        int
	MaxAgeDays        int
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type ShopifyConfig struct {
	APISecret        string // webhook HMAC key
	MaxWebhookBytes  int64
	SkipVerification bool // development only
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	SettingsTTL time.Duration
	LockTTL     time.Duration
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	WebhookTopic string
	AlertTopic   string
	GroupID      string

	// DeadLetterTopic receives webhook envelopes that keep failing. Empty
	// means they are retried until they succeed.
	DeadLetterTopic string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type JobsConfig struct {
	Location          string
	ReconcileSchedule string // cron spec, empty disables the job
	ReconcileTimeout  time.Duration
}

// DefaultSettingsConfig seeds the thresholds of shops seen for the first time.
type DefaultSettingsConfig struct {
	LowStockThresholdUnits      float64
	CriticalStockThresholdUnits float64
	CriticalStockoutDays        float64
	SalesVelocityThreshold      float64
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			HTTPPort: getEnv("HTTP_PORT", ":8080"),
			GRPCPort: getEnv("GRPC_PORT", ":8083"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
			FilePath:          getEnv("LOGGER_FILE", ""),
			MaxSizeMB:         getEnvInt("LOGGER_FILE_MAX_SIZE_MB", 100),
			MaxBackups:        getEnvInt("LOGGER_FILE_MAX_BACKUPS", 5),
			MaxAgeDays:        getEnvInt("LOGGER_FILE_MAX_AGE_DAYS", 14),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_stock_sync"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Shopify: ShopifyConfig{
			APISecret:        getEnv("SHOPIFY_API_SECRET", ""),
			MaxWebhookBytes:  int64(getEnvInt("SHOPIFY_MAX_WEBHOOK_BYTES", 1<<20)),
			SkipVerification: getEnvBool("SHOPIFY_SKIP_HMAC", false),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SettingsTTL: getEnvDuration("REDIS_SETTINGS_TTL", 5*time.Minute),
			LockTTL:     getEnvDuration("REDIS_RECALC_LOCK_TTL", 2*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:      getEnvBool("KAFKA_ENABLED", true),
			Brokers:      getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			WebhookTopic: getEnv("KAFKA_TOPIC_WEBHOOKS", "shopify.webhooks"),
			AlertTopic:   getEnv("KAFKA_TOPIC_ALERTS", "inventory.alerts"),
			GroupID:      getEnv("KAFKA_GROUP_STOCK_SYNC", "stock-sync"),

			DeadLetterTopic: getEnv("KAFKA_TOPIC_WEBHOOKS_DLQ", "shopify.webhooks.dlq"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX", "product_metrics"),
		},
		Jobs: JobsConfig{
			Location:          getEnv("JOBS_TIMEZONE", "UTC"),
			ReconcileSchedule: getEnv("JOBS_RECONCILE_SCHEDULE", "0 3 * * *"),
			ReconcileTimeout:  getEnvDuration("JOBS_RECONCILE_TIMEOUT", 30*time.Minute),
		},
		Defaults: DefaultSettingsConfig{
			LowStockThresholdUnits:      getEnvFloat("DEFAULT_LOW_STOCK_THRESHOLD", 10),
			CriticalStockThresholdUnits: getEnvFloat("DEFAULT_CRITICAL_STOCK_THRESHOLD", 0),
			CriticalStockoutDays:        getEnvFloat("DEFAULT_CRITICAL_STOCKOUT_DAYS", 0),
			SalesVelocityThreshold:      getEnvFloat("DEFAULT_SALES_VELOCITY_THRESHOLD", 5),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

// Validate rejects configurations that would silently accept forged webhooks.
func (c *Config) Validate() error {
	if c.Shopify.APISecret == "" && !c.Shopify.SkipVerification {
		return errors.New("SHOPIFY_API_SECRET is required unless SHOPIFY_SKIP_HMAC is set")
	}
	if c.Shopify.SkipVerification && !c.IsDevelopment() {
		return errors.New("SHOPIFY_SKIP_HMAC is only allowed in development")
	}
	if c.Shopify.MaxWebhookBytes <= 0 {
		return errors.New("SHOPIFY_MAX_WEBHOOK_BYTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}
