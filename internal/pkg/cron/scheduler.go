// Package cron runs the interval jobs of the time clock: schedule reminders and the
// daily status sweep.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one named function run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context) error
}

// Registrar is implemented by job groups that add themselves to a Scheduler.
type Registrar interface {
	RegisterJobs(s *Scheduler)
}

// Scheduler runs each job on its own ticker until Stop.
type Scheduler struct {
	jobs    []Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job. Jobs added after Start are ignored until the next Start.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("cron job registered", "name", name, "interval", interval)
}

// Register adds every job group.
func (s *Scheduler) Register(groups ...Registrar) {
	for _, g := range groups {
		g.RegisterJobs(s)
	}
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("cron scheduler started", "job_count", len(s.jobs))
}

// Stop cancels the jobs' context and waits for running ticks to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("cron scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.executeJob(s.ctx, job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Debug("cron job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(s.ctx, job)
		}
	}
}

// executeJob runs one tick. A panicking job is logged and keeps its schedule.
func (s *Scheduler) executeJob(ctx context.Context, job Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			slog.Error("cron job failed", "name", job.Name, "error", err, "duration", time.Since(start))
			return
		}
		slog.Debug("cron job completed", "name", job.Name, "duration", time.Since(start))
	}()

	return job.Fn(ctx)
}

// RunOnce runs every job one time in registration order and returns the first error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	var first error
	for _, job := range jobs {
		if err := s.executeJob(ctx, job); err != nil && first == nil {
			first = fmt.Errorf("%s: %w", job.Name, err)
		}
	}
	return first
}
