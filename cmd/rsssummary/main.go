package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/app"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/logging"
)

type options struct {
	Config string `short:"c" long:"config" env:"RSS_SUMMARY_CONFIG" description:"Path to the YAML configuration file"`
	Mode   string `long:"mode" choice:"cron" choice:"realtime" description:"Override the configured schedule mode"`
	Once   bool   `long:"once" description:"Run a single sweep and exit instead of scheduling"`
	All    bool   `long:"all" description:"With --once, ignore stored watermarks and process every recent article"`
}

func main() {
	os.Exit(run())
}

func run() int {
	// Local development keys live in .env; absence is fine.
	_ = godotenv.Load()

	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if opts.Mode != "" {
		cfg.Schedule.Mode = opts.Mode
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("closing stores", "error", err)
		}
	}()

	if opts.Once {
		onlyNew := cfg.Processing.OnlyNew && !opts.All
		report, err := application.RunOnce(ctx, onlyNew)
		if err != nil {
			logger.Error("run failed",
				"error", err,
				"succeeded", report.SuccessCount,
				"failed", report.FailureCount)
			return 1
		}
		logger.Info("run complete",
			"succeeded", report.SuccessCount,
			"failed", report.FailureCount,
			"summaries", report.TotalSummaries)
		return 0
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return 1
	}
	return 0
}

func loadConfig(opts options) (config.Config, error) {
	if opts.Config != "" {
		return config.LoadFile(opts.Config)
	}
	return config.Load(), nil
}
