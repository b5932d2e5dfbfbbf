package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const (
	anthropicVersion         = "2023-06-01"
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultOpenAIEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultMaxTokens         = 1024
	requestTimeout           = 60 * time.Second

	// Returned for whitespace-only input instead of calling the API.
	noContentSummary = "No content available to summarize."
)

// Client implements ports.Summarizer against Anthropic- or
// OpenAI-style chat completion APIs, selected by provider.
type Client struct {
	provider   string
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	httpClient *http.Client
}

var _ ports.Summarizer = (*Client)(nil)

// NewClient builds a client from configuration. An empty endpoint
// resolves to the provider's public API.
func NewClient(cfg config.LLMConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		switch cfg.Provider {
		case config.ProviderOpenAI:
			endpoint = defaultOpenAIEndpoint
		default:
			endpoint = defaultAnthropicEndpoint
		}
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{
		provider:  cfg.Provider,
		endpoint:  endpoint,
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Summarize sends the article content under the given prompt and
// returns the model's reply. Whitespace-only content short-circuits to
// a fixed notice without any remote call.
func (c *Client) Summarize(ctx context.Context, content, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("llm client is nil")
	}
	if strings.TrimSpace(content) == "" {
		return noContentSummary, nil
	}
	if c.apiKey == "" || c.model == "" {
		return "", fmt.Errorf("llm client misconfigured")
	}

	switch c.provider {
	case config.ProviderOpenAI:
		return c.summarizeOpenAI(ctx, content, prompt)
	default:
		return c.summarizeAnthropic(ctx, content, prompt)
	}
}

func (c *Client) summarizeAnthropic(ctx context.Context, content, prompt string) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     safePrompt(prompt),
		"messages": []map[string]string{
			{"role": "user", "content": content},
		},
	}

	raw, err := c.post(ctx, payload, func(req *http.Request) {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", anthropicVersion)
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("anthropic response contained no text")
}

func (c *Client) summarizeOpenAI(ctx context.Context, content, prompt string) (string, error) {
	payload := map[string]any{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": safePrompt(prompt)},
			{"role": "user", "content": content},
		},
	}

	raw, err := c.post(ctx, payload, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai response contained no text")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, payload map[string]any, decorate func(*http.Request)) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", c.provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s error %s: %s", c.provider, resp.Status, strings.TrimSpace(string(snippet)))
	}

	return io.ReadAll(resp.Body)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Summarize the following article in two or three plain sentences."
	}
	return prompt
}
