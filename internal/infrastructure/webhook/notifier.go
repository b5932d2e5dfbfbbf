package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const (
	defaultAllowedDomain = "chat.googleapis.com"

	// Google Chat rejects text messages beyond 4096 characters.
	maxMessageRunes = 4000
)

// Notifier delivers feed bundles as a single message to a group-chat
// incoming webhook.
type Notifier struct {
	webhookURL    string
	allowedDomain string
	client        *http.Client
	logger        *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook destination. An empty allowed
// domain falls back to the Google Chat API host.
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) *Notifier {
	domainName := strings.TrimSpace(cfg.AllowedDomain)
	if domainName == "" {
		domainName = defaultAllowedDomain
	}
	return &Notifier{
		webhookURL:    cfg.WebhookURL,
		allowedDomain: domainName,
		client:        &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
	}
}

// SendBundle posts one consolidated message for the bundle. The
// destination host is checked against the allowed chat domain before
// any network traffic.
func (n *Notifier) SendBundle(ctx context.Context, bundle domain.Bundle) error {
	if n.webhookURL == "" {
		return fmt.Errorf("webhook notifier misconfigured")
	}
	if len(bundle.Summaries) == 0 {
		return fmt.Errorf("bundle for feed %q is empty", bundle.FeedID)
	}
	if err := n.checkHost(); err != nil {
		return err
	}

	requestID := uuid.NewString()
	body, err := json.Marshal(map[string]string{"text": buildMessage(bundle)})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if n.logger != nil {
		n.logger.Debug("bundle delivered",
			"request_id", requestID,
			"feed_id", bundle.FeedID,
			"summaries", len(bundle.Summaries),
		)
	}
	return nil
}

func (n *Notifier) checkHost() error {
	u, err := url.Parse(n.webhookURL)
	if err != nil {
		return fmt.Errorf("parse webhook url: %w", err)
	}
	host := u.Hostname()
	if host == n.allowedDomain || strings.HasSuffix(host, "."+n.allowedDomain) {
		return nil
	}
	return fmt.Errorf("webhook host %q does not belong to %q", host, n.allowedDomain)
}

// buildMessage renders the bundle newest-first with title, summary and
// link per article, bounded to the platform message size.
func buildMessage(bundle domain.Bundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*: %d new article(s)\n", bundle.FeedName, len(bundle.Summaries))
	for i, s := range bundle.Summaries {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "%d. *%s*\n", i+1, s.Title)
		if s.Text != "" {
			sb.WriteString(s.Text)
			sb.WriteString("\n")
		}
		if s.Link != "" {
			sb.WriteString(s.Link)
			sb.WriteString("\n")
		}
	}
	return truncateRunes(strings.TrimRight(sb.String(), "\n"), maxMessageRunes)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
