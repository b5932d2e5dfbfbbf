package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

// Runner couples a scheduler driver with recurring orchestrator runs.
// Tick timing belongs to the driver; the shared gate keeps scheduled
// and externally triggered runs from interleaving.
type Runner struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	onlyNew      bool
	gate         *RunGate
	logger       *slog.Logger
}

// NewRunner returns a helper to start and stop recurring runs.
func NewRunner(driver ports.Scheduler, orchestrator *Orchestrator, onlyNew bool, gate *RunGate, logger *slog.Logger) *Runner {
	if gate == nil {
		gate = &RunGate{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		driver:       driver,
		orchestrator: orchestrator,
		onlyNew:      onlyNew,
		gate:         gate,
		logger:       logger,
	}
}

// Start registers the sweep with the driver.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || r.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if !r.gate.TryAcquire() {
			r.logger.Warn("run already in progress, skipping trigger",
				"trigger", trigger.Format(time.RFC3339))
			return
		}
		defer r.gate.Release()

		report, err := r.orchestrator.Run(ctx, r.onlyNew)
		if err != nil {
			r.logger.Error("scheduled run interrupted",
				"trigger", trigger.Format(time.RFC3339),
				"succeeded", report.SuccessCount,
				"failed", report.FailureCount,
				"error", err,
			)
			return
		}
		r.logger.Info("scheduled run finished",
			"trigger", trigger.Format(time.RFC3339),
			"succeeded", report.SuccessCount,
			"failed", report.FailureCount,
			"summaries", report.TotalSummaries,
		)
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}
	return r.driver.Stop(ctx)
}
