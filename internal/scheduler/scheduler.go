package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/bank-cards/internal/models"
	"github.com/Dan9191/bank-cards/internal/utils"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper expires overdue cards
type Sweeper interface {
	SweepExpired(ctx context.Context, today time.Time) ([]models.Card, error)
}

// Scheduler triggers the expiration sweep on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *logrus.Logger
	now     func() time.Time
	timeout time.Duration
}

// New registers the sweep under spec (standard five-field cron syntax or a
// descriptor such as @daily). Schedules are evaluated in UTC.
func New(spec string, sweeper Sweeper, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		sweeper: sweeper,
		log:     log,
		now:     time.Now,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce performs a single sweep for the current UTC day
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	today := utils.Today(s.now())
	expired, err := s.sweeper.SweepExpired(ctx, today)
	if err != nil {
		s.log.Errorf("Expiration sweep failed: %v", err)
		return
	}
	s.log.WithField("expired", len(expired)).Debug("Expiration sweep finished")
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Expiration sweep scheduler started")
}

// Stop halts the schedule and waits for a running sweep until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Expiration sweep still running at shutdown")
	}
}
