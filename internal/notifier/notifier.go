// notifier.go
//
// Database classification intake and owner-manager review notifications
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of dbreview.
// dbreview is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// dbreview is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with dbreview.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package notifier

import (
	"context"
	"fmt"

	"github.com/localnerve/dbreview/internal/config"
	"go.uber.org/zap"
)

// Mailer asks an owner's manager to review a high classification database.
// Transport failures are logged by the implementation and reported as false.
type Mailer interface {
	Send(ctx context.Context, databaseName, ownerEmail, managerEmail string) bool
}

// Message is the payload handed to relay and queue transports
type Message struct {
	DatabaseName string `json:"database_name"`
	OwnerEmail   string `json:"owner_email"`
	ManagerEmail string `json:"manager_email"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

// NewMessage renders the review request
func NewMessage(databaseName, ownerEmail, managerEmail string) Message {
	return Message{
		DatabaseName: databaseName,
		OwnerEmail:   ownerEmail,
		ManagerEmail: managerEmail,
		Subject:      fmt.Sprintf("Review requested: database %s is classified HIGH", databaseName),
		Body: fmt.Sprintf("The database %q owned by %s is classified HIGH. "+
			"As %s's manager, please review its classification.", databaseName, ownerEmail, ownerEmail),
	}
}

// MailerFunc adapts a function to the Mailer interface
type MailerFunc func(ctx context.Context, databaseName, ownerEmail, managerEmail string) bool

// Send calls f
func (f MailerFunc) Send(ctx context.Context, databaseName, ownerEmail, managerEmail string) bool {
	return f(ctx, databaseName, ownerEmail, managerEmail)
}

// New builds the mailer selected by MAIL_TRANSPORT. The returned close func
// releases transport resources and is never nil.
func New(cfg *config.Config, log *zap.Logger) (Mailer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.MailTransport {
	case config.MailTransportLog, "":
		return NewLogMailer(log), noop, nil

	case config.MailTransportWebhook:
		return NewWebhookMailer(cfg.MailWebhookURL, cfg.MailWebhookToken, cfg.MailTimeout, log), noop, nil

	case config.MailTransportAMQP:
		mailer, err := DialQueueMailer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, log)
		if err != nil {
			return nil, noop, err
		}
		return mailer, mailer.Close, nil
	}

	return nil, noop, fmt.Errorf("unsupported mail transport: %s", cfg.MailTransport)
}
