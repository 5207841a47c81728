package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookMailer posts notifications to an HTTP mail relay
type WebhookMailer struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookMailer creates a relay client. Retries are left to the relay.
func NewWebhookMailer(url, token string, timeout time.Duration, logger *zap.Logger) *WebhookMailer {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &WebhookMailer{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// URL is the relay endpoint
func (m *WebhookMailer) URL() string {
	return m.url
}

// Send reports true only for a 2xx relay response
func (m *WebhookMailer) Send(ctx context.Context, databaseName, ownerEmail, managerEmail string) bool {
	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetBody(NewMessage(databaseName, ownerEmail, managerEmail)).
		Post(m.url)

	if err != nil {
		m.logger.Error("mail relay call failed",
			zap.String("database", databaseName),
			zap.String("manager_email", managerEmail),
			zap.Error(err),
		)
		return false
	}

	if resp.IsError() || resp.StatusCode() >= 300 {
		m.logger.Error("mail relay rejected notification",
			zap.String("database", databaseName),
			zap.String("manager_email", managerEmail),
			zap.Int("status_code", resp.StatusCode()),
		)
		return false
	}

	return true
}
