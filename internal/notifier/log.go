package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LogMailer only records the notification; useful for development and dry runs
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send always succeeds
func (m *LogMailer) Send(_ context.Context, databaseName, ownerEmail, managerEmail string) bool {
	m.logger.Info(fmt.Sprintf("sending email about %s to %s, who is manager of %s", databaseName, managerEmail, ownerEmail),
		zap.String("database", databaseName),
		zap.String("manager_email", managerEmail),
		zap.String("owner_email", ownerEmail),
	)
	return true
}
