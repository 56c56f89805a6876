// Package scheduler runs pipeline jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

// NewJob wraps fn as a Job.
func NewJob(name string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

// Scheduler manages background jobs. A job still running when its next tick
// arrives is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard five-field cron specs
// plus descriptors such as "@daily" and "@every 6h".
func New(log zerolog.Logger) *Scheduler {
	log = log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers job under schedule.
// Schedule examples:
//   - "0 18 * * MON-FRI" - 18:00 on weekdays
//   - "@daily"           - midnight
//   - "@every 6h"        - every six hours
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(s.ctx, job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("job registered")
	return nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Next returns the next activation time over all jobs, zero if none.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// RunNow executes job immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return s.run(ctx, job)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("running job")

	err := job.Run(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("duration", time.Since(start)).
			Msg("job failed")
		return err
	}
	s.log.Info().
		Str("job", job.Name()).
		Dur("duration", time.Since(start)).
		Msg("job completed")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
