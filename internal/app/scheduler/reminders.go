package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/abordo/internal/services"
	"github.com/charlesng35/abordo/pkg/logger"
)

// DefaultSchedule runs the sweep every day at 08:00.
const DefaultSchedule = "0 8 * * *"

// Sweeper sends due reminders for every eligible user.
type Sweeper interface {
	SweepAll(ctx context.Context) (services.DispatchResult, error)
}

// ReminderScheduler triggers the daily reminder sweep on a cron schedule.
type ReminderScheduler struct {
	sweeper  Sweeper
	cron     *cron.Cron
	schedule string
	location *time.Location
	timeout  time.Duration
	log      *zap.Logger
}

// Option customises the ReminderScheduler.
type Option func(*ReminderScheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *ReminderScheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedule overrides the cron expression of the sweep.
func WithSchedule(spec string) Option {
	return func(s *ReminderScheduler) {
		if strings.TrimSpace(spec) != "" {
			s.schedule = spec
		}
	}
}

// WithLocation sets the time zone the schedule is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *ReminderScheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTimeout bounds a single sweep. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *ReminderScheduler) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// NewReminderScheduler constructs a ReminderScheduler for the given sweeper.
func NewReminderScheduler(sweeper Sweeper, opts ...Option) (*ReminderScheduler, error) {
	if sweeper == nil {
		return nil, errors.New("reminder scheduler: sweeper is required")
	}

	s := &ReminderScheduler{
		sweeper:  sweeper,
		schedule: DefaultSchedule,
		location: time.Local,
		timeout:  30 * time.Minute,
		log:      logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger), cron.WithLocation(s.location))
	}
	return s, nil
}

// LoadLocation resolves a configured time zone name. Empty and "Local" map to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("reminder scheduler: timezone %q: %w", name, err)
	}
	return loc, nil
}

// Start registers the sweep job and launches the scheduler.
func (s *ReminderScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("reminder sweep finished with errors", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("reminder scheduler: schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info("reminder scheduler started",
		zap.String("schedule", s.schedule),
		zap.String("timezone", s.location.String()),
	)
	return nil
}

// Stop halts the underlying scheduler, waiting for a running sweep to complete.
func (s *ReminderScheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes a single sweep. Per-notification failures are combined with
// any error that aborted the run.
func (s *ReminderScheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.sweeper.SweepAll(ctx)

	s.log.Info("reminder sweep completed",
		zap.Int("processed", result.Processed),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return multierr.Append(err, result.Err())
}
