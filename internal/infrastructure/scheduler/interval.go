package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const defaultInterval = 15 * time.Minute

// IntervalDriver polls on a fixed interval, firing the job once
// immediately on start. A tick landing while the previous run is
// still in flight is skipped.
type IntervalDriver struct {
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	stop     chan struct{}
	inFlight atomic.Bool
}

var _ ports.Scheduler = (*IntervalDriver)(nil)

// NewIntervalDriver builds a driver; non-positive intervals fall back
// to the default.
func NewIntervalDriver(interval time.Duration, logger *slog.Logger) *IntervalDriver {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IntervalDriver{interval: interval, logger: logger}
}

// Start launches the polling loop. Calling Start twice is a no-op.
func (d *IntervalDriver) Start(ctx context.Context, job func(time.Time)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if job == nil || d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	stop := d.stop

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		d.runGuarded(job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				d.runGuarded(job, t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the polling loop. An in-flight run finishes on its own.
func (d *IntervalDriver) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}

func (d *IntervalDriver) runGuarded(job func(time.Time), trigger time.Time) {
	if !d.inFlight.CompareAndSwap(false, true) {
		d.logger.Warn("skipping tick, previous run still in progress",
			"trigger", trigger.Format(time.RFC3339))
		return
	}
	defer d.inFlight.Store(false)
	job(trigger)
}
