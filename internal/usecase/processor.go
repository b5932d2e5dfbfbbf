package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const defaultMaxArticles = 5

// Processor turns one feed into an ordered list of summaries,
// isolating failures to article granularity.
type Processor struct {
	reader        ports.FeedReader
	summarizer    ports.Summarizer
	defaultPrompt string
	maxArticles   int
	logger        *slog.Logger
}

// NewProcessor constructs the per-feed pipeline stage. A non-positive
// maxArticles falls back to the default bound.
func NewProcessor(reader ports.FeedReader, summarizer ports.Summarizer, defaultPrompt string, maxArticles int, logger *slog.Logger) *Processor {
	if maxArticles <= 0 {
		maxArticles = defaultMaxArticles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		reader:        reader,
		summarizer:    summarizer,
		defaultPrompt: defaultPrompt,
		maxArticles:   maxArticles,
		logger:        logger,
	}
}

// ProcessFeed fetches, filters and summarizes the articles of one
// feed. The reader returns articles newest-first, already restricted
// to the since watermark and the per-feed bound. An empty feed is a
// routine outcome, not an error; summarization failures skip the
// affected article and keep the feed going.
func (p *Processor) ProcessFeed(ctx context.Context, feed domain.Feed, onlyNew bool) ([]domain.Summary, error) {
	log := p.logger.With("feed_id", feed.ID, "feed_name", feed.DisplayName())

	var since *time.Time
	if onlyNew {
		since = feed.LastProcessed
	}

	articles, err := p.reader.Fetch(ctx, feed.URL, p.maxArticles, since)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetch feed %s: %w", feed.ID, err)
	}
	if len(articles) == 0 {
		log.Debug("no new articles")
		return nil, nil
	}

	prompt := feed.Prompt
	if prompt == "" {
		prompt = p.defaultPrompt
	}

	summaries := make([]domain.Summary, 0, len(articles))
	for i, article := range articles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := p.summarizer.Summarize(ctx, article.Body(), prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("summarization failed, skipping article",
				"index", i,
				"title", article.Title,
				"error", err,
			)
			continue
		}

		summaries = append(summaries, domain.Summary{
			FeedID:    feed.ID,
			FeedName:  feed.DisplayName(),
			Title:     article.Title,
			Link:      article.Link,
			Text:      text,
			Published: article.Published,
			Source:    feed.URL,
		})
	}

	log.Debug("feed processed", "articles", len(articles), "summaries", len(summaries))
	return summaries, nil
}
