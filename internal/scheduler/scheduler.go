package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/eleven-am/boxoffice/internal/logger"
)

const DeactivatePastEventsJob = "deactivate_past_events"

// EventDeactivator is the part of the event repository the worker drives.
type EventDeactivator interface {
	DeactivatePastEvents(ctx context.Context) (int64, error)
}

// JobObserver is notified after every job run.
type JobObserver interface {
	ObserveJob(job string, err error)
}

type Scheduler struct {
	cron     gocron.Scheduler
	events   EventDeactivator
	observer JobObserver
	log      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Scheduler)

func WithObserver(o JobObserver) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// New registers the past-event deactivation job to run every interval. The
// first run happens as soon as the scheduler starts and runs never overlap.
func New(events EventDeactivator, interval time.Duration, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron,
		events: events,
		log:    logger.Worker(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_, _ = s.RunOnce(s.ctx)
		}),
		gocron.WithName(DeactivatePastEventsJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = cron.Shutdown()
		return nil, fmt.Errorf("failed to register %s job: %w", DeactivatePastEventsJob, err)
	}

	return s, nil
}

// RunOnce deactivates past events immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.events.DeactivatePastEvents(ctx)
	if s.observer != nil {
		s.observer.ObserveJob(DeactivatePastEventsJob, err)
	}
	if err != nil {
		s.log.Error("Failed to deactivate past events", "error", err)
		return 0, err
	}

	s.log.Info("Deactivated past events", "rows", n, "duration", time.Since(start))
	return n, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "job", DeactivatePastEventsJob)
}

// Shutdown cancels a run in progress and waits for the scheduler to stop.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.log.Info("Scheduler stopped")
	return nil
}
