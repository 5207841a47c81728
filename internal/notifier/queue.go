package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the part of an AMQP channel the queue mailer needs
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueMailer hands notifications to a mail worker through RabbitMQ
type QueueMailer struct {
	conn       *amqp.Connection
	channel    Publisher
	exchange   string
	routingKey string
	logger     *zap.Logger
}

// DialQueueMailer connects to the broker and opens a publishing channel
func DialQueueMailer(url, exchange, routingKey string, logger *zap.Logger) (*QueueMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	mailer := NewQueueMailer(ch, exchange, routingKey, logger)
	mailer.conn = conn
	return mailer, nil
}

// NewQueueMailer publishes through an existing channel
func NewQueueMailer(ch Publisher, exchange, routingKey string, logger *zap.Logger) *QueueMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueMailer{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}
}

// Send publishes one persistent message per notification
func (m *QueueMailer) Send(ctx context.Context, databaseName, ownerEmail, managerEmail string) bool {
	body, err := json.Marshal(NewMessage(databaseName, ownerEmail, managerEmail))
	if err != nil {
		m.logger.Error("failed to encode notification", zap.Error(err))
		return false
	}

	err = m.channel.PublishWithContext(ctx,
		m.exchange,
		m.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		m.logger.Error("failed to publish notification",
			zap.String("database", databaseName),
			zap.String("manager_email", managerEmail),
			zap.Error(err),
		)
		return false
	}

	return true
}

// Close closes the broker connection if this mailer opened it
func (m *QueueMailer) Close() error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
