// Package jobs runs the periodic maintenance work of the service.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/drumok/cashflowpre/database"
	"github.com/drumok/cashflowpre/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// ResetUsageJob clears the usage counters of profiles without an active
// paid subscription. Paid profiles reset when Stripe reports a paid invoice.
type ResetUsageJob struct {
	Store  database.Store
	Now    func() time.Time
	Logger *logrus.Logger
}

// Run performs one reset pass.
func (j *ResetUsageJob) Run(ctx context.Context) (int64, error) {
	at := j.Now().UTC()
	n, err := j.Store.ResetUnpaidUsage(ctx, at)
	if err != nil {
		j.Logger.WithError(err).Error("[JOBS] usage reset failed")
		return 0, err
	}
	metrics.UsageReset(n)
	j.Logger.WithFields(logrus.Fields{"profiles": n, "at": at}).Info("[JOBS] usage reset")
	return n, nil
}

// Scheduler owns the cron runner.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	logger  *logrus.Logger
	running bool
}

// NewScheduler registers the usage reset on schedule, a standard five-field
// cron expression evaluated in UTC.
func NewScheduler(schedule string, job *ResetUsageJob, logger *logrus.Logger) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		),
	)
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		_, _ = job.Run(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid usage reset schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("[JOBS] scheduler started")
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("[JOBS] scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("[JOBS] scheduler stop timed out")
	}
	s.running = false
}

// Next returns the next time the reset fires, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
