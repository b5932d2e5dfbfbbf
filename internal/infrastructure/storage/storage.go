package storage

import (
	"context"
	"fmt"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/config"
	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

const (
	defaultFilePath = "data/watermarks.json"
	defaultBoltPath = "data/watermarks.db"
)

// Open builds the watermark store selected by the configured driver
// and returns it with a closer for its underlying resources.
func Open(ctx context.Context, cfg config.StorageConfig) (ports.WatermarkStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		path := cfg.Path
		if path == "" {
			path = defaultFilePath
		}
		return NewFileStore(path), func() error { return nil }, nil

	case config.DriverBolt:
		path := cfg.Path
		if path == "" {
			path = defaultBoltPath
		}
		store, err := OpenBolt(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt store: %w", err)
		}
		return store, store.Close, nil

	case config.DriverPostgres:
		store, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
