package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	name      string
	job       Job
	interval  time.Duration
	immediate bool
}

func NewScheduler(name string, job Job, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
	}
}

// RunImmediately makes Start run the job once before the first tick.
func (s *Scheduler) RunImmediately() *Scheduler {
	s.immediate = true
	return s
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.immediate {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.run(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		logrus.WithField("job", s.name).Warnf("Scheduled job failed: %v", err)
	}
}
