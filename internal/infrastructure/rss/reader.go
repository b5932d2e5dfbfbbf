package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "RssAiSummaryCompilation/1.0 RSS Reader"
)

// Reader implements ports.FeedReader on top of gofeed.
type Reader struct {
	client *http.Client
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.FeedReader = (*Reader)(nil)

// NewReader wires an HTTP client; nil gets a default with a timeout.
func NewReader(client *http.Client, logger *slog.Logger) *Reader {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Reader{client: client, parser: gofeed.NewParser(), logger: logger}
}

// Fetch downloads and parses the feed, then applies the selection rules:
// newest-first ordering, the exclusive since filter, truncation to limit.
func (r *Reader) Fetch(ctx context.Context, url string, limit int, since *time.Time) ([]domain.Article, error) {
	feed, err := r.parse(ctx, url)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		articles = append(articles, convertItem(item))
	}

	domain.SortNewestFirst(articles)
	if since != nil {
		articles = domain.FilterSince(articles, *since)
	}
	return domain.Truncate(articles, limit), nil
}

// Validate reports whether the URL serves a parsable feed. It never
// fails; unreachable or malformed feeds simply return false.
func (r *Reader) Validate(ctx context.Context, url string) bool {
	_, err := r.parse(ctx, url)
	if err != nil && r.logger != nil {
		r.logger.Debug("feed validation failed", "url", url, "error", err)
	}
	return err == nil
}

func (r *Reader) parse(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// convertItem maps a gofeed item onto the domain article, reducing HTML
// bodies to plain text so downstream summarization sees readable input.
func convertItem(item *gofeed.Item) domain.Article {
	article := domain.Article{
		Title:        item.Title,
		Link:         item.Link,
		PublishedRaw: item.Published,
		Content:      CleanText(item.Content),
		Description:  CleanText(item.Description),
	}
	if article.Title == "" {
		article.Title = domain.NoTitle
	}
	if item.PublishedParsed != nil {
		article.Published = item.PublishedParsed
	}
	if item.ITunesExt != nil {
		article.Snippet = CleanText(item.ITunesExt.Summary)
	}
	return article
}
