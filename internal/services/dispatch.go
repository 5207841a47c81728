// dispatch.go
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

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/localnerve/dbreview/internal/lock"
	"github.com/localnerve/dbreview/internal/metrics"
	"github.com/localnerve/dbreview/internal/models"
	"github.com/localnerve/dbreview/internal/notifier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDispatchInProgress means another dispatch run holds the lock
var ErrDispatchInProgress = errors.New("escalation dispatch already in progress")

// Dispatcher notifies the manager of every HIGH classification database owner
type Dispatcher struct {
	DB          *gorm.DB
	Mailer      notifier.Mailer
	Logger      *zap.Logger
	Concurrency int
	// Lock is optional; without it concurrent runs are allowed
	Lock lock.Locker
}

// NewDispatcher creates a sequential dispatcher without a lock
func NewDispatcher(db *gorm.DB, mailer notifier.Mailer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		DB:          db,
		Mailer:      mailer,
		Logger:      log,
		Concurrency: 1,
	}
}

// DispatchEscalations sends one review request per HIGH record and returns the
// recipients that could not be notified, in record order. Unresolvable owners
// and managers are reported as "owner:<id>" and "manager:<id>".
// An empty list means every notification went out. A cancelled context or a
// storage failure during lookups ends the run with an error instead.
func (d *Dispatcher) DispatchEscalations(ctx context.Context) ([]string, error) {
	log := d.Logger
	if log == nil {
		log = zap.L()
	}
	log = log.With(zap.String("dispatch_id", uuid.NewString()))

	if d.Lock != nil {
		release, err := d.Lock.Acquire(ctx)
		if err != nil {
			if errors.Is(err, lock.ErrLocked) {
				return nil, ErrDispatchInProgress
			}
			return nil, err
		}
		defer release()
	}

	records, err := FindHighClassification(ctx, d.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to query high classification records: %w", err)
	}

	log.Info("escalation dispatch started", zap.Int("records", len(records)))

	failures := make([]string, len(records))

	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range records {
		record := records[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			failure, err := d.escalate(gctx, log, record)
			if err != nil {
				return err
			}
			failures[i] = failure
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("escalation dispatch interrupted", zap.Error(ctxErr))
			return nil, ctxErr
		}
		return nil, fmt.Errorf("failed to resolve escalation recipients: %w", err)
	}

	recipientsWithErrors := make([]string, 0)
	for _, failure := range failures {
		if failure != "" {
			recipientsWithErrors = append(recipientsWithErrors, failure)
		}
	}

	log.Info("escalation dispatch finished",
		zap.Int("records", len(records)),
		zap.Int("failed", len(recipientsWithErrors)),
	)

	return recipientsWithErrors, nil
}

// escalate handles one record and returns the failed recipient, or "" on success.
// Only a missing employee is a failed recipient; any other lookup error aborts the run.
func (d *Dispatcher) escalate(ctx context.Context, log *zap.Logger, record models.DatabaseRecord) (string, error) {
	owner, err := d.findEmployee(ctx, record.OwnerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		metrics.Notifications.WithLabelValues(metrics.ResultUnresolved).Inc()
		log.Warn("owner not resolvable",
			zap.String("database", record.Name),
			zap.Int64("owner_id", record.OwnerID),
		)
		return fmt.Sprintf("owner:%d", record.OwnerID), nil
	}

	manager, err := d.findEmployee(ctx, owner.ManagerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		metrics.Notifications.WithLabelValues(metrics.ResultUnresolved).Inc()
		log.Warn("manager not resolvable",
			zap.String("database", record.Name),
			zap.Int64("manager_id", owner.ManagerID),
		)
		return fmt.Sprintf("manager:%d", owner.ManagerID), nil
	}

	if !d.Mailer.Send(ctx, record.Name, owner.Email, manager.Email) {
		metrics.Notifications.WithLabelValues(metrics.ResultFailed).Inc()
		return manager.Email, nil
	}

	metrics.Notifications.WithLabelValues(metrics.ResultSent).Inc()
	return "", nil
}

func (d *Dispatcher) findEmployee(ctx context.Context, userID int64) (*models.Employee, error) {
	var employee models.Employee
	err := d.DB.WithContext(ctx).
		Session(&gorm.Session{Logger: d.DB.Logger.LogMode(logger.Silent)}).
		First(&employee, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}
