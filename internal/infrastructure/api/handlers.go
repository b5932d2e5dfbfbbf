package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/usecase"
)

// BatchRunner is the slice of the orchestrator the API needs.
type BatchRunner interface {
	Run(ctx context.Context, onlyNew bool) (domain.RunReport, error)
	EffectiveFeeds(ctx context.Context) []domain.Feed
}

// Handler serves the management endpoints.
type Handler struct {
	runner         BatchRunner
	reader         ports.FeedReader
	gate           *usecase.RunGate
	onlyNewDefault bool
	logger         *slog.Logger
	started        time.Time
}

// NewHandler wires the orchestrator slice, the feed reader used for
// validation and the shared run gate.
func NewHandler(runner BatchRunner, reader ports.FeedReader, gate *usecase.RunGate, onlyNewDefault bool, logger *slog.Logger) *Handler {
	if gate == nil {
		gate = &usecase.RunGate{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		runner:         runner,
		reader:         reader,
		gate:           gate,
		onlyNewDefault: onlyNewDefault,
		logger:         logger,
		started:        time.Now(),
	}
}

// TriggerRun executes one batch sweep and returns its report. The
// only_new query parameter overrides the configured default. A 409 is
// returned while another run holds the gate.
func (h *Handler) TriggerRun(c *gin.Context) {
	onlyNew := h.onlyNewDefault
	if raw, ok := c.GetQuery("only_new"); ok {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only_new must be a boolean"})
			return
		}
		onlyNew = parsed
	}

	if !h.gate.TryAcquire() {
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}
	defer h.gate.Release()

	report, err := h.runner.Run(c.Request.Context(), onlyNew)
	if err != nil {
		h.logger.Error("triggered run interrupted", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

type feedInfo struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// ListFeeds returns the effective feed list, external source included.
func (h *Handler) ListFeeds(c *gin.Context) {
	feeds := h.runner.EffectiveFeeds(c.Request.Context())

	out := make([]feedInfo, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, feedInfo{
			ID:      f.ID,
			URL:     f.URL,
			Name:    f.DisplayName(),
			Enabled: f.Enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"feeds": out})
}

// ValidateFeed checks whether a URL serves a parsable feed.
func (h *Handler) ValidateFeed(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	valid := h.reader.Validate(c.Request.Context(), req.URL)
	c.JSON(http.StatusOK, gin.H{"url": req.URL, "valid": valid})
}

// GetHealth reports liveness.
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
