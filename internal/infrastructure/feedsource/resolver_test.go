package feedsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const feedDocumentJSON = `{
  "feeds": [
    {"id": "releases", "url": "https://example.com/releases.xml", "name": "Release Notes"},
    {"id": "status", "url": "https://example.com/status.xml", "enabled": false, "prompt": "One line only."},
    {"id": "broken-no-url"}
  ]
}`

func TestListFeeds(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(feedDocumentJSON)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	resolver := NewResolver(srv.URL, nil)
	feeds, err := resolver.ListFeeds(context.Background())
	if err != nil {
		t.Fatalf("ListFeeds() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("ListFeeds() returned %d feeds, want 2 (malformed entry skipped)", len(feeds))
	}

	if feeds[0].ID != "releases" || !feeds[0].Enabled {
		t.Errorf("feeds[0] = %+v, want enabled releases feed", feeds[0])
	}
	if feeds[1].ID != "status" || feeds[1].Enabled {
		t.Errorf("feeds[1] = %+v, want disabled status feed", feeds[1])
	}
	if feeds[1].Prompt != "One line only." {
		t.Errorf("feeds[1].Prompt = %q", feeds[1].Prompt)
	}
}

func TestListFeedsHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resolver := NewResolver(srv.URL, nil)
	if _, err := resolver.ListFeeds(context.Background()); err == nil {
		t.Fatal("ListFeeds() error = nil, want non-nil for HTTP 500")
	}
}

func TestListFeedsBadJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("not json")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	resolver := NewResolver(srv.URL, nil)
	if _, err := resolver.ListFeeds(context.Background()); err == nil {
		t.Fatal("ListFeeds() error = nil, want decode failure")
	}
}

func TestListFeedsEmptyURL(t *testing.T) {
	t.Parallel()

	resolver := NewResolver("", nil)
	if _, err := resolver.ListFeeds(context.Background()); err == nil {
		t.Fatal("ListFeeds() error = nil, want configuration error")
	}
}
