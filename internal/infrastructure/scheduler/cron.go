package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

// CronDriver fires the job on a cron expression. Ticks landing while
// a run is still in progress are skipped, never overlapped.
type CronDriver struct {
	spec   string
	loc    *time.Location
	logger *slog.Logger

	mu     sync.Mutex
	runner *cron.Cron
}

var _ ports.Scheduler = (*CronDriver)(nil)

// NewCronDriver builds a driver for the given five-field expression
// (descriptors like @hourly are accepted too).
func NewCronDriver(spec string, loc *time.Location, logger *slog.Logger) *CronDriver {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronDriver{spec: spec, loc: loc, logger: logger}
}

// ValidateSpec reports whether the expression parses. Used by startup
// validation so a bad expression fails before any processing.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return nil
}

// Start schedules the job. Calling Start twice is a no-op.
func (c *CronDriver) Start(ctx context.Context, job func(time.Time)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if job == nil || c.runner != nil {
		return nil
	}
	if err := ValidateSpec(c.spec); err != nil {
		return err
	}

	runner := cron.New(
		cron.WithLocation(c.loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{c.logger})),
	)
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.loc)) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}

	runner.Start()
	c.runner = runner
	return nil
}

// Stop halts scheduling and waits for an in-flight run, bounded by ctx.
func (c *CronDriver) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.runner == nil {
		return nil
	}
	done := c.runner.Stop()
	c.runner = nil

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger exposes slog through the cron logging interface so
// skipped ticks show up in the application log.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
