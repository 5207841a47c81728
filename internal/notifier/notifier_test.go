package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localnerve/dbreview/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mailer := NewLogMailer(zap.New(core))

	assert.True(t, mailer.Send(context.Background(), "payroll", "dev@x.com", "cto@x.com"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sending email about payroll to cto@x.com, who is manager of dev@x.com", logs.All()[0].Message)
}

func TestWebhookMailer(t *testing.T) {
	var (
		got     Message
		headers http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	mailer := NewWebhookMailer(server.URL, "s3cret", time.Second, nil)
	assert.True(t, mailer.Send(context.Background(), "payroll", "dev@x.com", "cto@x.com"))

	assert.Equal(t, "payroll", got.DatabaseName)
	assert.Equal(t, "dev@x.com", got.OwnerEmail)
	assert.Equal(t, "cto@x.com", got.ManagerEmail)
	assert.Contains(t, got.Subject, "payroll")
	assert.Equal(t, "Bearer s3cret", headers.Get("Authorization"))
	assert.NotEmpty(t, headers.Get("Idempotency-Key"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestWebhookMailerFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusBadGateway)
	}))

	mailer := NewWebhookMailer(server.URL, "", time.Second, nil)
	assert.False(t, mailer.Send(context.Background(), "db", "o@x.com", "m@x.com"))

	server.Close()
	assert.False(t, mailer.Send(context.Background(), "db", "o@x.com", "m@x.com"))
}

type fakeChannel struct {
	exchange, key string
	published     []amqp.Publishing
	err           error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange, c.key = exchange, key
	c.published = append(c.published, msg)
	return nil
}

func TestQueueMailer(t *testing.T) {
	ch := &fakeChannel{}
	mailer := NewQueueMailer(ch, "mail", "db_review.notify", nil)

	assert.True(t, mailer.Send(context.Background(), "payroll", "dev@x.com", "cto@x.com"))
	require.Len(t, ch.published, 1)

	msg := ch.published[0]
	assert.Equal(t, "mail", ch.exchange)
	assert.Equal(t, "db_review.notify", ch.key)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.NotEmpty(t, msg.MessageId)

	var got Message
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, NewMessage("payroll", "dev@x.com", "cto@x.com"), got)

	ch.err = errors.New("channel closed")
	assert.False(t, mailer.Send(context.Background(), "payroll", "dev@x.com", "cto@x.com"))
	assert.NoError(t, mailer.Close())
}

func TestNew(t *testing.T) {
	mailer, closeFn, err := New(&config.Config{MailTransport: config.MailTransportLog}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, mailer)
	assert.NoError(t, closeFn())

	mailer, _, err = New(&config.Config{
		MailTransport:  config.MailTransportWebhook,
		MailWebhookURL: "http://relay.local/send",
		MailTimeout:    time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://relay.local/send", mailer.(*WebhookMailer).URL())

	_, closeFn, err = New(&config.Config{MailTransport: "pigeon"}, nil)
	assert.ErrorContains(t, err, "unsupported mail transport")
	assert.NotNil(t, closeFn)
}
