package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

// OrchestratorDeps wires the driven adapters into the batch sweep.
type OrchestratorDeps struct {
	Processor  *Processor
	Notifier   ports.Notifier
	Watermarks ports.WatermarkStore
	FeedSource ports.FeedSource // optional
	Logger     *slog.Logger
}

// Orchestrator sweeps all enabled feeds once per run and aggregates
// the run report. Feeds are isolated from each other: no single feed
// failure aborts the batch.
type Orchestrator struct {
	processor  *Processor
	notifier   ports.Notifier
	watermarks ports.WatermarkStore
	feedSource ports.FeedSource
	feeds      []domain.Feed
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrchestrator constructs the batch sweep over the configured feeds.
func NewOrchestrator(deps OrchestratorDeps, feeds []domain.Feed) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		processor:  deps.Processor,
		notifier:   deps.Notifier,
		watermarks: deps.Watermarks,
		feedSource: deps.FeedSource,
		feeds:      feeds,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes every enabled feed once. Per-feed failures are folded
// into the report; the returned error is non-nil only when the context
// ends the sweep early, and the partial report still covers the feeds
// finished before the interruption.
func (o *Orchestrator) Run(ctx context.Context, onlyNew bool) (domain.RunReport, error) {
	var report domain.RunReport

	runStart := o.now().UTC()
	log := o.logger.With("run_id", uuid.NewString())

	feeds := domain.EnabledFeeds(o.EffectiveFeeds(ctx))
	log.Info("run started", "only_new", onlyNew, "enabled_feeds", len(feeds))

	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", "error", err)
			return report, err
		}
		if err := o.processOne(ctx, log, feed, onlyNew, runStart, &report); err != nil {
			log.Warn("run interrupted", "feed_id", feed.ID, "error", err)
			return report, err
		}
	}

	log.Info("run finished",
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
		"summaries", report.TotalSummaries,
	)
	return report, nil
}

// processOne drives fetch, summarize, notify and watermark update for
// a single feed. A non-nil return means the run context ended; every
// other failure is absorbed into the report.
func (o *Orchestrator) processOne(ctx context.Context, log *slog.Logger, feed domain.Feed, onlyNew bool, runStart time.Time, report *domain.RunReport) error {
	flog := log.With("feed_id", feed.ID, "feed_name", feed.DisplayName())

	stored, err := o.watermarks.Get(ctx, feed.ID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		flog.Error("watermark read failed", "error", err)
		report.FailureCount++
		return nil
	}
	if stored != nil {
		feed.LastProcessed = stored
	}

	summaries, err := o.processor.ProcessFeed(ctx, feed, onlyNew)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		flog.Error("feed processing failed", "error", err)
		report.FailureCount++
		return nil
	}
	if len(summaries) == 0 {
		// Nothing new is a successful outcome; the watermark stays put.
		report.SuccessCount++
		return nil
	}

	bundle := domain.Bundle{
		FeedID:    feed.ID,
		FeedName:  feed.DisplayName(),
		Summaries: summaries,
	}
	if err := o.notifier.SendBundle(ctx, bundle); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The unsent bundle is retried next run off the old watermark.
		flog.Error("bundle delivery failed", "summaries", len(summaries), "error", err)
		report.FailureCount++
		return nil
	}

	report.SuccessCount++
	report.TotalSummaries += len(summaries)

	if err := o.watermarks.Set(ctx, feed.ID, runStart); err != nil {
		// The notification went out, so the feed still counts as
		// succeeded; the stale watermark may cause duplicates next run.
		flog.Error("watermark update failed", "error", err)
	}
	return nil
}

// EffectiveFeeds overlays the externally managed list onto the
// configured one. Resolver failures leave the configured list in place.
func (o *Orchestrator) EffectiveFeeds(ctx context.Context) []domain.Feed {
	if o.feedSource == nil {
		return o.feeds
	}

	external, err := o.feedSource.ListFeeds(ctx)
	if err != nil {
		o.logger.Warn("feed source unavailable, using configured feeds", "error", err)
		return o.feeds
	}
	return domain.MergeFeeds(o.feeds, external)
}
