package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/localnerve/dbreview/internal/config"
	"github.com/localnerve/dbreview/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	MailRelay    string            `json:"mail_relay,omitempty"`
	Redis        string            `json:"redis,omitempty"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(message string) {
	r.Status = "unhealthy"
	if r.ErrorMessage == "" {
		r.ErrorMessage = message
	} else {
		r.ErrorMessage += "; " + message
	}
}

// Healthy reports whether every checked dependency answered
func (r HealthCheckResult) Healthy() bool {
	return r.Status == "healthy"
}

// HealthCheck pings the database and, when configured, the mail relay and redis.
// rdb may be nil.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		result.fail(fmt.Sprintf("Database connection error: %v", err))
		zap.L().Warn("health check failed - database connection", zap.Error(err))
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		result.fail(fmt.Sprintf("Database ping failed: %v", err))
		zap.L().Warn("health check failed - database ping", zap.Error(err))
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if relayURL := mailRelayURL(cfg); relayURL != "" {
		if err := utils.PingMailRelay(ctx, relayURL); err != nil {
			result.MailRelay = "unreachable"
			result.Details["mail_relay_error"] = err.Error()
			result.fail(fmt.Sprintf("Mail relay ping failed: %v", err))
			zap.L().Warn("health check failed - mail relay ping", zap.Error(err))
		} else {
			result.MailRelay = "ok"
			result.Details["mail_transport"] = cfg.MailTransport
		}
	}

	if rdb != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			result.Redis = "unreachable"
			result.Details["redis_error"] = err.Error()
			result.fail(fmt.Sprintf("Redis ping failed: %v", err))
			zap.L().Warn("health check failed - redis ping", zap.Error(err))
		} else {
			result.Redis = "ok"
		}
	}

	if result.Healthy() {
		zap.L().Debug("health check passed - all systems operational")
	}

	return result
}

func mailRelayURL(cfg *config.Config) string {
	switch cfg.MailTransport {
	case config.MailTransportWebhook:
		return cfg.MailWebhookURL
	case config.MailTransportAMQP:
		return cfg.AMQPURL
	}
	return ""
}
