package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/localnerve/dbreview/internal/services"
	"github.com/robfig/cron"
	"go.uber.org/zap"
)

const workerName = "EscalationCronWorker"

// Dispatcher runs one escalation dispatch
type Dispatcher interface {
	DispatchEscalations(ctx context.Context) ([]string, error)
}

// Scheduler runs escalation dispatch on a cron schedule.
// Schedules use the six field form with seconds ("0 0 9 * * MON-FRI") or descriptors ("@every 24h").
type Scheduler struct {
	cron       *cron.Cron
	dispatcher Dispatcher
	logger     *zap.Logger
	timeout    time.Duration
}

// New registers the dispatch job; it does not start it
func New(schedule string, dispatcher Dispatcher, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("worker", workerName)),
		timeout:    timeout,
	}

	if err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid NOTIFY_SCHEDULE %q: %w", schedule, err)
	}

	return s, nil
}

// Start runs the schedule in the background
func (s *Scheduler) Start() {
	s.logger.Info("escalation schedule started")
	s.cron.Start()
}

// Stop halts future runs; a run in progress completes
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("escalation schedule stopped")
}

// RunOnce performs one scheduled dispatch and logs the outcome
func (s *Scheduler) RunOnce() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	failed, err := s.dispatcher.DispatchEscalations(ctx)
	if err != nil {
		if errors.Is(err, services.ErrDispatchInProgress) {
			s.logger.Info("scheduled dispatch skipped, another run holds the lock")
			return
		}
		s.logger.Error("scheduled dispatch failed", zap.Error(err))
		return
	}

	if len(failed) > 0 {
		s.logger.Warn("scheduled dispatch finished with failures", zap.Strings("recipients_with_errors", failed))
		return
	}
	s.logger.Info("scheduled dispatch finished")
}
