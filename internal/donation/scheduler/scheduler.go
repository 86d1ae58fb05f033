// Package scheduler runs the periodic campaign reconciliation sweep. The
// sweep is the safety net behind the cached aggregates: even if a credit or
// recompute is ever missed, totals converge back to the ledger on the next
// run.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	dErrors "kindra/pkg/domain-errors"
)

// Reconciler recomputes every campaign and donor aggregate from the ledger.
type Reconciler interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// Scheduler owns the background job runner.
type Scheduler struct {
	inner      gocron.Scheduler
	reconciler Reconciler
	interval   time.Duration
	logger     *slog.Logger
}

// New constructs a Scheduler. The interval must be positive; callers that
// want reconciliation disabled simply do not construct one.
func New(reconciler Reconciler, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "reconcile interval must be positive")
	}
	inner, err := gocron.NewScheduler()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create scheduler")
	}
	return &Scheduler{
		inner:      inner,
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
	}, nil
}

// Start registers the reconcile job and begins the schedule. Singleton mode
// keeps a slow sweep from overlapping the next tick.
func (s *Scheduler) Start() error {
	_, err := s.inner.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.runReconcile),
		gocron.WithName("campaign_reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "register reconcile job")
	}
	s.inner.Start()
	s.logger.Info("reconcile scheduler started", "interval", s.interval.String())
	return nil
}

// Shutdown stops the schedule and waits for a running sweep to finish.
func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}

func (s *Scheduler) runReconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	drifted, err := s.reconciler.RecomputeAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reconcile sweep failed", "error", err.Error())
		return
	}
	s.logger.InfoContext(ctx, "reconcile sweep completed",
		"drifted", drifted,
		"duration", time.Since(start).String())
}
