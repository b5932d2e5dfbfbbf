package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
<title>Release Notes</title>
<link>https://example.com</link>
<description>Product updates</description>
<item>
<title>Second release</title>
<link>https://example.com/2</link>
<pubDate>Tue, 02 Jan 2024 09:00:00 +0000</pubDate>
<description>Mid-cycle fixes</description>
</item>
<item>
<title>Third release</title>
<link>https://example.com/3</link>
<pubDate>Wed, 03 Jan 2024 09:00:00 +0000</pubDate>
<content:encoded><![CDATA[<p>Adds the <b>export</b> pipeline.</p><script>alert(1)</script>]]></content:encoded>
<description>Export support</description>
</item>
<item>
<title>First release</title>
<link>https://example.com/1</link>
<pubDate>Mon, 01 Jan 2024 09:00:00 +0000</pubDate>
<description>Initial cut</description>
</item>
<item>
<link>https://example.com/undated</link>
<description>No date given</description>
</item>
</channel>
</rss>`

func newFeedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusOK, feedXML)
	reader := NewReader(srv.Client(), nil)

	articles, err := reader.Fetch(context.Background(), srv.URL, 0, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(articles) != 4 {
		t.Fatalf("Fetch() returned %d articles, want 4", len(articles))
	}

	wantLinks := []string{
		"https://example.com/3",
		"https://example.com/2",
		"https://example.com/1",
		"https://example.com/undated",
	}
	for i, want := range wantLinks {
		if articles[i].Link != want {
			t.Errorf("articles[%d].Link = %q, want %q", i, articles[i].Link, want)
		}
	}
}

func TestFetchSinceIsExclusive(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusOK, feedXML)
	reader := NewReader(srv.Client(), nil)

	since := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	articles, err := reader.Fetch(context.Background(), srv.URL, 0, &since)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Fetch() returned %d articles, want 1", len(articles))
	}
	if articles[0].Link != "https://example.com/3" {
		t.Errorf("articles[0].Link = %q, want the newest item", articles[0].Link)
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusOK, feedXML)
	reader := NewReader(srv.Client(), nil)

	articles, err := reader.Fetch(context.Background(), srv.URL, 2, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Fetch() returned %d articles, want 2", len(articles))
	}
	if articles[0].Link != "https://example.com/3" || articles[1].Link != "https://example.com/2" {
		t.Errorf("limit kept %q and %q, want the two newest items", articles[0].Link, articles[1].Link)
	}
}

func TestFetchCleansHTMLContent(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusOK, feedXML)
	reader := NewReader(srv.Client(), nil)

	articles, err := reader.Fetch(context.Background(), srv.URL, 1, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got, want := articles[0].Body(), "Adds the export pipeline."; got != want {
		t.Errorf("Body() = %q, want %q", got, want)
	}
}

func TestFetchFillsPlaceholderTitle(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusOK, feedXML)
	reader := NewReader(srv.Client(), nil)

	articles, err := reader.Fetch(context.Background(), srv.URL, 0, nil)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	undated := articles[len(articles)-1]
	if undated.Title != domain.NoTitle {
		t.Errorf("undated.Title = %q, want %q", undated.Title, domain.NoTitle)
	}
	if undated.Published != nil {
		t.Errorf("undated.Published = %v, want nil", undated.Published)
	}
}

func TestFetchHTTPError(t *testing.T) {
	t.Parallel()

	srv := newFeedServer(t, http.StatusNotFound, "missing")
	reader := NewReader(srv.Client(), nil)

	if _, err := reader.Fetch(context.Background(), srv.URL, 0, nil); err == nil {
		t.Fatal("Fetch() error = nil, want non-nil for HTTP 404")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := newFeedServer(t, http.StatusOK, feedXML)
	bad := newFeedServer(t, http.StatusOK, "<html><body>not a feed</body></html>")

	reader := NewReader(good.Client(), nil)

	if !reader.Validate(context.Background(), good.URL) {
		t.Error("Validate() = false for a well-formed feed, want true")
	}
	if reader.Validate(context.Background(), bad.URL) {
		t.Error("Validate() = true for an HTML page, want false")
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "  already clean  ", want: "already clean"},
		{name: "tags stripped", in: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "script removed", in: "<p>Safe</p><script>alert(1)</script>", want: "Safe"},
		{name: "whitespace collapsed", in: "<div>one\n\n  two</div>", want: "one two"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
