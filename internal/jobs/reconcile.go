package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Recalculator is the slice of the product use case the reconciler drives.
type Recalculator interface {
	RecalculateAllShops(ctx context.Context) []dto.RecalculateResult
}

// Scheduler periodically recomputes every shop's metrics so drift from
// missed or reordered webhooks does not outlive one cycle.
type Scheduler struct {
	sched   *cron.Cron
	recalc  Recalculator
	timeout time.Duration
	logger  logger.ZapLogger
}

// NewScheduler registers the reconcile job. An empty schedule yields a
// scheduler with no jobs.
func NewScheduler(recalc Recalculator, schedule, location string, timeout time.Duration, log logger.ZapLogger) (*Scheduler, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		return nil, fmt.Errorf("load job location %q: %w", location, err)
	}

	s := &Scheduler{
		sched:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		recalc:  recalc,
		timeout: timeout,
		logger:  log,
	}

	if schedule != "" {
		if _, err := s.sched.AddFunc(schedule, s.Reconcile); err != nil {
			return nil, fmt.Errorf("schedule reconcile job %q: %w", schedule, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.sched.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("reconcile job still running at shutdown")
	}
}

// Reconcile runs one full pass over all shops.
func (s *Scheduler) Reconcile() {
	defer func() {
		if err := recover(); err != nil {
			s.logger.Error("reconcile job panicked", zap.Any("panic", err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	results := s.recalc.RecalculateAllShops(ctx)

	failed := 0
	updated := 0
	for _, r := range results {
		if !r.Success {
			failed++
			continue
		}
		updated += r.UpdatedCount
	}

	s.logger.Info("Reconcile job finished",
		zap.Int("shops", len(results)),
		zap.Int("failed", failed),
		zap.Int("products", updated),
		zap.Duration("took", time.Since(start)),
	)
}
