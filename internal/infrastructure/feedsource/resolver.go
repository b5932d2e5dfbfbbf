package feedsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const userAgent = "RssAiSummaryCompilation/1.0 Feed Source"

// Resolver fetches the externally managed feed list from a JSON
// endpoint. Entries returned here take precedence over the static
// configuration; merging is the caller's concern.
type Resolver struct {
	url    string
	client *resty.Client
	logger *slog.Logger
}

var _ ports.FeedSource = (*Resolver)(nil)

// NewResolver points the resolver at a feed document URL.
func NewResolver(url string, logger *slog.Logger) *Resolver {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", userAgent)
	return &Resolver{url: url, client: client, logger: logger}
}

type feedDocument struct {
	Feeds []feedEntry `json:"feeds"`
}

type feedEntry struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
	Prompt  string `json:"prompt"`
}

// ListFeeds downloads and decodes the feed document. Entries missing
// an id or url are skipped; a missing enabled flag means enabled.
func (r *Resolver) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	if r.url == "" {
		return nil, fmt.Errorf("feed source url is empty")
	}

	resp, err := r.client.R().SetContext(ctx).Get(r.url)
	if err != nil {
		return nil, fmt.Errorf("fetch feed source: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("feed source returned %s", resp.Status())
	}

	var doc feedDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("decode feed source: %w", err)
	}

	feeds := make([]domain.Feed, 0, len(doc.Feeds))
	for _, entry := range doc.Feeds {
		if entry.ID == "" || entry.URL == "" {
			if r.logger != nil {
				r.logger.Warn("skipping malformed feed entry", "id", entry.ID, "url", entry.URL)
			}
			continue
		}
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		feeds = append(feeds, domain.Feed{
			ID:      entry.ID,
			URL:     entry.URL,
			Name:    entry.Name,
			Enabled: enabled,
			Prompt:  entry.Prompt,
		})
	}
	return feeds, nil
}
