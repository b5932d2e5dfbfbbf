package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/domain"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/api"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/feedsource"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/llm"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/rss"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/scheduler"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/storage"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/infrastructure/webhook"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/logging"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration to adapters, use cases and lifecycle
// orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	orchestrator *usecase.Orchestrator
	gate         *usecase.RunGate
	reader       *rss.Reader

	httpServer *http.Server
	closeStore func() error
}

// New builds a runnable application instance. Fatal misconfiguration and
// an unreachable watermark store surface here, before any feed is touched.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Schedule.Mode == config.ModeCron {
		if err := scheduler.ValidateSpec(cfg.Schedule.CronExpression); err != nil {
			return nil, err
		}
	}

	store, closeStore, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	reader := rss.NewReader(nil, baseLogger.With("component", "rss"))
	summarizer := llm.NewClient(cfg.LLM)
	notifier := webhook.NewNotifier(cfg.Notify, baseLogger.With("component", "webhook"))

	var source ports.FeedSource
	if cfg.FeedSource.URL != "" {
		source = feedsource.NewResolver(cfg.FeedSource.URL, baseLogger.With("component", "feedsource"))
	}

	processor := usecase.NewProcessor(
		reader,
		summarizer,
		cfg.LLM.Prompt,
		cfg.Processing.ArticlesPerFeed,
		baseLogger.With("component", "processor"),
	)
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Processor:  processor,
		Notifier:   notifier,
		Watermarks: store,
		FeedSource: source,
		Logger:     baseLogger.With("component", "orchestrator"),
	}, feedsFromConfig(cfg.Feeds))

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		orchestrator: orchestrator,
		gate:         &usecase.RunGate{},
		reader:       reader,
		closeStore:   closeStore,
	}, nil
}

// RunOnce executes a single sweep and returns its report.
func (a *Application) RunOnce(ctx context.Context, onlyNew bool) (domain.RunReport, error) {
	if !a.gate.TryAcquire() {
		return domain.RunReport{}, errors.New("a run is already in progress")
	}
	defer a.gate.Release()

	return a.orchestrator.Run(ctx, onlyNew)
}

// Run starts the configured schedule driver and, when a port is set, the
// HTTP API. It blocks until ctx ends, then shuts both down.
func (a *Application) Run(ctx context.Context) error {
	driver, onlyNew := a.buildDriver()
	runner := usecase.NewRunner(driver, a.orchestrator, onlyNew, a.gate, a.logger.With("component", "runner"))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start schedule driver: %w", err)
	}
	a.startAPI()

	a.logger.Info("application started",
		"mode", a.cfg.Schedule.Mode,
		"feeds", len(a.cfg.Feeds),
		"api", a.cfg.API.Port != "")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := runner.Stop(stopCtx); err != nil {
		a.logger.Warn("schedule driver stop", "error", err)
	}
	a.stopAPI(stopCtx)

	return nil
}

// Close releases held resources, currently the watermark store handle.
func (a *Application) Close() error {
	if a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

func (a *Application) buildDriver() (ports.Scheduler, bool) {
	log := a.logger.With("component", "scheduler")

	if a.cfg.Schedule.Mode == config.ModeRealtime {
		interval := time.Duration(a.cfg.Schedule.IntervalMinutes) * time.Minute
		// Short-interval polling always filters on the watermark; a full
		// resend every few minutes would flood the chat.
		return scheduler.NewIntervalDriver(interval, log), true
	}

	driver := scheduler.NewCronDriver(a.cfg.Schedule.CronExpression, a.cfg.Schedule.Location(), log)
	return driver, a.cfg.Processing.OnlyNew
}

func (a *Application) startAPI() {
	if a.cfg.API.Port == "" {
		return
	}

	handler := api.NewHandler(
		a.orchestrator,
		a.reader,
		a.gate,
		a.cfg.Processing.OnlyNew,
		a.logger.With("component", "api"),
	)
	engine := api.NewServer(handler, a.cfg.API.AccessKey, a.logger.With("component", "http"))

	a.httpServer = &http.Server{
		Addr:         ":" + a.cfg.API.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		a.logger.Info("api listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("api server stopped", "error", err)
		}
	}()
}

func (a *Application) stopAPI(ctx context.Context) {
	if a.httpServer == nil {
		return
	}
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Warn("api shutdown", "error", err)
	}
}

func feedsFromConfig(entries []config.FeedConfig) []domain.Feed {
	feeds := make([]domain.Feed, 0, len(entries))
	for _, e := range entries {
		feeds = append(feeds, domain.Feed{
			ID:            e.ID,
			URL:           e.URL,
			Name:          e.Name,
			Enabled:       e.Enabled,
			Prompt:        e.Prompt,
			LastProcessed: e.LastProcessed,
		})
	}
	return feeds
}
