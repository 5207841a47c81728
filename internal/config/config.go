package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mail transports understood by the notifier factory
const (
	MailTransportLog     = "log"
	MailTransportWebhook = "webhook"
	MailTransportAMQP    = "amqp"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port        string
	ServiceName string

	// Logging
	LogLevel   string // debug, info, warn, error
	LogFormat  string // json, console
	DBLogLevel string // silent, error, warn, info

	// Database configuration
	DBType            string // postgres, mysql, sqlite, sqlite-purego, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Mail capability
	MailTransport    string
	MailWebhookURL   string
	MailWebhookToken string
	MailTimeout      time.Duration
	AMQPURL          string
	AMQPExchange     string
	AMQPRoutingKey   string

	// Escalation dispatch
	NotifySchedule    string
	NotifyConcurrency int
	NotifyLockTTL     time.Duration

	// Redis (dispatch lock), disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		ServiceName:       getEnv("SERVICE_NAME", "dbreview"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		DBType:            strings.ToLower(getEnv("DB_TYPE", "postgres")),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		MailTransport:     strings.ToLower(getEnv("MAIL_TRANSPORT", MailTransportLog)),
		MailWebhookURL:    getEnv("MAIL_WEBHOOK_URL", ""),
		MailWebhookToken:  getEnv("MAIL_WEBHOOK_TOKEN", ""),
		MailTimeout:       getEnvAsDuration("MAIL_TIMEOUT", 10*time.Second),
		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", ""),
		AMQPRoutingKey:    getEnv("AMQP_ROUTING_KEY", "db_review.notify"),
		NotifySchedule:    getEnv("NOTIFY_SCHEDULE", ""),
		NotifyConcurrency: getEnvAsInt("NOTIFY_CONCURRENCY", 1),
		NotifyLockTTL:     getEnvAsDuration("NOTIFY_LOCK_TTL", 5*time.Minute),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvAsInt("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and cross-field constraints
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" && !cfg.IsSQLite() {
		return fmt.Errorf("DB_USER is required")
	}

	switch cfg.MailTransport {
	case MailTransportLog:
	case MailTransportWebhook:
		if cfg.MailWebhookURL == "" {
			return fmt.Errorf("MAIL_WEBHOOK_URL is required for mail transport %q", cfg.MailTransport)
		}
	case MailTransportAMQP:
		if cfg.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for mail transport %q", cfg.MailTransport)
		}
	default:
		return fmt.Errorf("unsupported mail transport: %s", cfg.MailTransport)
	}

	if cfg.NotifyConcurrency < 1 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be at least 1, got %d", cfg.NotifyConcurrency)
	}

	return nil
}

// IsSQLite reports whether the configured database is a SQLite file
func (cfg *Config) IsSQLite() bool {
	return cfg.DBType == "sqlite" || cfg.DBType == "sqlite-purego"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses values like "30s" or "5m"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
