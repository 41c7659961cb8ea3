package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic cleanup sweep.
type Scheduler struct {
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	sweepFunc func(ctx context.Context) error
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetSweepFunction sets the job executed on every tick.
func (s *Scheduler) SetSweepFunction(f func(ctx context.Context) error) {
	s.sweepFunc = f
}

// Start registers the job under the given cron expression (UTC).
func (s *Scheduler) Start(spec string) error {
	if s.sweepFunc == nil {
		log.Println("sweep function not set, scheduler will not run")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("triggered scheduled cleanup sweep (%s)", spec)
		if err := s.sweepFunc(s.ctx); err != nil {
			log.Printf("scheduled cleanup sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("scheduler started - cleanup sweep on %q (UTC)", spec)
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("scheduler stopped")
}

// IsRunning reports whether any job is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
