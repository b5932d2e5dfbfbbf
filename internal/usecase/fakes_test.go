package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
)

// fakeReader serves canned articles per URL and honors the port
// contract the same way the real adapter does: newest-first, since
// exclusive, truncated to limit.
type fakeReader struct {
	articles map[string][]domain.Article
	errs     map[string]error
	fetched  []string
	sinces   []*time.Time
}

func (f *fakeReader) Fetch(ctx context.Context, url string, limit int, since *time.Time) ([]domain.Article, error) {
	f.fetched = append(f.fetched, url)
	f.sinces = append(f.sinces, since)
	if err := f.errs[url]; err != nil {
		return nil, err
	}

	articles := append([]domain.Article(nil), f.articles[url]...)
	domain.SortNewestFirst(articles)
	if since != nil {
		articles = domain.FilterSince(articles, *since)
	}
	return domain.Truncate(articles, limit), nil
}

func (f *fakeReader) Validate(ctx context.Context, url string) bool { return true }

// fakeSummarizer echoes content behind a marker and fails on demand.
type fakeSummarizer struct {
	failOn      map[string]bool
	prompts     []string
	calls       int
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeSummarizer) Summarize(ctx context.Context, content, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.cancel != nil && f.calls == f.cancelAfter {
		f.cancel()
		return "", ctx.Err()
	}
	if f.failOn[content] {
		return "", fmt.Errorf("model unavailable")
	}
	return "sum:" + content, nil
}

// fakeNotifier records delivered bundles; cancel, when set, fires
// right after a successful send.
type fakeNotifier struct {
	bundles  []domain.Bundle
	failFeed map[string]bool
	cancel   context.CancelFunc
}

func (f *fakeNotifier) SendBundle(ctx context.Context, bundle domain.Bundle) error {
	if f.failFeed[bundle.FeedID] {
		return fmt.Errorf("webhook down")
	}
	f.bundles = append(f.bundles, bundle)
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

// fakeStore is an in-memory watermark store with per-feed fault taps.
type fakeStore struct {
	marks  map[string]time.Time
	getErr map[string]error
	setErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		marks:  map[string]time.Time{},
		getErr: map[string]error{},
		setErr: map[string]error{},
	}
}

func (f *fakeStore) Get(ctx context.Context, feedID string) (*time.Time, error) {
	if err := f.getErr[feedID]; err != nil {
		return nil, err
	}
	ts, ok := f.marks[feedID]
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func (f *fakeStore) Set(ctx context.Context, feedID string, ts time.Time) error {
	if err := f.setErr[feedID]; err != nil {
		return err
	}
	f.marks[feedID] = ts
	return nil
}

// fakeSource returns a fixed external feed list or an error.
type fakeSource struct {
	feeds []domain.Feed
	err   error
}

func (f *fakeSource) ListFeeds(ctx context.Context) ([]domain.Feed, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.feeds, nil
}

func articleAt(title string, published time.Time) domain.Article {
	return domain.Article{
		Title:     title,
		Link:      "https://example.com/" + title,
		Published: &published,
		Content:   title,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
