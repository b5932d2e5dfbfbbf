package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
)

func sampleBundle() domain.Bundle {
	return domain.Bundle{
		FeedID:   "releases",
		FeedName: "Release Notes",
		Summaries: []domain.Summary{
			{Title: "Third release", Link: "https://example.com/3", Text: "Adds exports."},
			{Title: "Second release", Link: "https://example.com/2", Text: "Fixes bugs."},
		},
	}
}

func TestSendBundlePostsOneMessage(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		text := payload["text"]
		if !strings.Contains(text, "Release Notes") {
			t.Errorf("message missing feed name: %q", text)
		}
		first := strings.Index(text, "Third release")
		second := strings.Index(text, "Second release")
		if first < 0 || second < 0 || first > second {
			t.Errorf("message not ordered newest-first: %q", text)
		}
		if !strings.Contains(text, "https://example.com/3") || !strings.Contains(text, "Adds exports.") {
			t.Errorf("message missing link or summary: %q", text)
		}
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{WebhookURL: srv.URL, AllowedDomain: "127.0.0.1"}, nil)
	if err := n.SendBundle(context.Background(), sampleBundle()); err != nil {
		t.Fatalf("SendBundle() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("webhook called %d times, want exactly 1", calls)
	}
}

func TestSendBundleRejectsForeignHost(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("webhook called despite disallowed host")
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{WebhookURL: srv.URL}, nil)
	err := n.SendBundle(context.Background(), sampleBundle())
	if err == nil {
		t.Fatal("SendBundle() error = nil, want host rejection")
	}
	if !strings.Contains(err.Error(), "does not belong") {
		t.Errorf("SendBundle() error = %v, want host check failure", err)
	}
}

func TestSendBundleHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{WebhookURL: srv.URL, AllowedDomain: "127.0.0.1"}, nil)
	if err := n.SendBundle(context.Background(), sampleBundle()); err == nil {
		t.Fatal("SendBundle() error = nil, want non-nil for HTTP 429")
	}
}

func TestSendBundleRejectsEmptyBundle(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.NotifyConfig{WebhookURL: "https://chat.googleapis.com/v1/spaces/x/messages?key=y"}, nil)
	if err := n.SendBundle(context.Background(), domain.Bundle{FeedID: "empty"}); err == nil {
		t.Fatal("SendBundle() error = nil, want rejection of empty bundle")
	}
}

func TestBuildMessageTruncates(t *testing.T) {
	t.Parallel()

	bundle := domain.Bundle{
		FeedID:   "big",
		FeedName: "Big Feed",
		Summaries: []domain.Summary{
			{Title: "Long", Text: strings.Repeat("x", maxMessageRunes*2)},
		},
	}

	msg := buildMessage(bundle)
	if got := len([]rune(msg)); got > maxMessageRunes {
		t.Errorf("message length = %d runes, want <= %d", got, maxMessageRunes)
	}
	if !strings.HasSuffix(msg, "…") {
		t.Errorf("truncated message should end with ellipsis, got %q", msg[len(msg)-8:])
	}
}
