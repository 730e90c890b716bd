package worker

import (
	"context"
	"log/slog"
	"time"
)

// JobScheduler submits its registered jobs to a pool on a fixed interval.
// The billing run scheduler is the only current user.
type JobScheduler struct {
	Name   string
	Ticker *time.Ticker
	Jobs   []Job
	Pool   *WorkingPool
}

func NewJobScheduler(name string, interval time.Duration, pool *WorkingPool) *JobScheduler {
	return &JobScheduler{
		Name:   name,
		Ticker: time.NewTicker(interval),
		Jobs:   make([]Job, 0),
		Pool:   pool,
	}
}

func (s *JobScheduler) AddJob(job Job) {
	s.Jobs = append(s.Jobs, job)
}

func (s *JobScheduler) Run(ctx context.Context) {
	slog.Info("Scheduler running", "name", s.Name)
	defer s.Ticker.Stop()

	for {
		select {
		case <-s.Ticker.C:
			slog.Info("Scheduler tick, submitting jobs", "name", s.Name, "jobs", len(s.Jobs))
			for _, job := range s.Jobs {
				if !s.Pool.SubmitJob(ctx, job) {
					slog.Info("Scheduler shutting down", "name", s.Name)
					return
				}
			}

		case <-ctx.Done():
			slog.Info("Scheduler shutting down", "name", s.Name)
			return
		}
	}
}
