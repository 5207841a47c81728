package services

import (
	"context"
	"net"
	"testing"

	"github.com/localnerve/dbreview/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHealthy(t *testing.T) {
	db := setupTestDB(t)

	result := HealthCheck(context.Background(), testConfig(), db, nil)
	assert.True(t, result.Healthy())
	assert.Equal(t, "ok", result.Database)
	assert.Empty(t, result.MailRelay)
	assert.Empty(t, result.Redis)
	assert.Equal(t, "sqlite", result.Details["database_type"])
}

func TestHealthCheckMailRelay(t *testing.T) {
	db := setupTestDB(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()

	cfg := testConfig()
	cfg.MailTransport = config.MailTransportWebhook
	cfg.MailWebhookURL = "http://" + addr + "/send"

	result := HealthCheck(context.Background(), cfg, db, nil)
	assert.True(t, result.Healthy())
	assert.Equal(t, "ok", result.MailRelay)

	listener.Close()

	result = HealthCheck(context.Background(), cfg, db, nil)
	assert.False(t, result.Healthy())
	assert.Equal(t, "unreachable", result.MailRelay)
	assert.Contains(t, result.ErrorMessage, "Mail relay ping failed")
}

func TestHealthCheckDatabaseDown(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.Close()

	result := HealthCheck(context.Background(), testConfig(), db, nil)
	assert.False(t, result.Healthy())
	assert.Equal(t, "unreachable", result.Database)
}
