// Package scheduler runs the periodic jobs of the service: payment
// reconciliation and database backups.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrUnknownJob = errors.New("unknown job")

// JobFunc is one run of a periodic job. The context is cancelled on shutdown
// or when the run exceeds its interval.
type JobFunc func(ctx context.Context) error

type Scheduler struct {
	cron   gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

func New(logger zerolog.Logger) (*Scheduler, error) {
	l := logger.With().Str("module", "scheduler").Logger()
	cron, err := gocron.NewScheduler(
		gocron.WithLogger(cronLogger{l}),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
				l.Error().Err(err).Str("job", name).Msg("job failed")
			})),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{cron: cron, ctx: ctx, cancel: cancel, log: l}, nil
}

// Every registers fn to run each interval. Overlapping runs are skipped and
// rescheduled.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() error {
			ctx, cancel := context.WithTimeout(s.ctx, interval)
			defer cancel()
			start := time.Now()
			err := fn(ctx)
			s.log.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("job finished")
			return err
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.log.Info().Str("job", name).Dur("interval", interval).Msg("job registered")
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	for _, j := range s.cron.Jobs() {
		if j.Name() == name {
			return j.RunNow()
		}
	}
	return fmt.Errorf("job %s: %w", name, ErrUnknownJob)
}

// Jobs lists registered job names.
func (s *Scheduler) Jobs() []string {
	jobs := s.cron.Jobs()
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Name())
	}
	return out
}

func (s *Scheduler) Start() { s.cron.Start() }

// Shutdown cancels running jobs and waits for them to return.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.cron.Shutdown()
}

// cronLogger routes gocron's own messages through zerolog.
type cronLogger struct{ log zerolog.Logger }

func (c cronLogger) Debug(msg string, args ...any) { c.log.Debug().Fields(args).Msg(msg) }
func (c cronLogger) Info(msg string, args ...any)  { c.log.Info().Fields(args).Msg(msg) }
func (c cronLogger) Warn(msg string, args ...any)  { c.log.Warn().Fields(args).Msg(msg) }
func (c cronLogger) Error(msg string, args ...any) { c.log.Error().Fields(args).Msg(msg) }
