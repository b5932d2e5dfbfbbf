package ports

import (
	"context"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
)

// FeedReader pulls recent articles for a single feed URL. Fetch returns
// them ordered newest-first, bounded by limit, and restricted to entries
// strictly newer than since when since is set.
type FeedReader interface {
	Fetch(ctx context.Context, url string, limit int, since *time.Time) ([]domain.Article, error)
	// Validate is a best-effort reachability and shape check; it reports
	// false instead of failing.
	Validate(ctx context.Context, url string) bool
}

// Summarizer turns article content into short digest text.
type Summarizer interface {
	Summarize(ctx context.Context, content, prompt string) (string, error)
}

// Notifier delivers one consolidated bundle as a single chat message.
type Notifier interface {
	SendBundle(ctx context.Context, bundle domain.Bundle) error
}

// WatermarkStore persists the last-processed timestamp per feed.
type WatermarkStore interface {
	Get(ctx context.Context, feedID string) (*time.Time, error)
	Set(ctx context.Context, feedID string, ts time.Time) error
}

// FeedSource supplies an externally managed feed list that is merged into
// the configured one. Failures are downgraded to warnings by the caller.
type FeedSource interface {
	ListFeeds(ctx context.Context) ([]domain.Feed, error)
}

// Scheduler controls when batch runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
