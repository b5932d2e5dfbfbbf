package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

// PostgresStore keeps per-feed watermarks in a feed_watermarks table.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.WatermarkStore = (*PostgresStore)(nil)

// OpenPostgres connects with the given DSN, verifies the connection
// and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
	if err := store.ensure(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensure(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS feed_watermarks (
    feed_id TEXT PRIMARY KEY,
    last_processed TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Get returns the stored watermark for the feed, or nil when absent.
func (s *PostgresStore) Get(ctx context.Context, feedID string) (*time.Time, error) {
	query, args, err := s.sb.
		Select("last_processed").
		From("feed_watermarks").
		Where(sq.Eq{"feed_id": feedID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var ts time.Time
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query watermark: %w", err)
	}

	ts = ts.UTC()
	return &ts, nil
}

// Set upserts the watermark for the feed.
func (s *PostgresStore) Set(ctx context.Context, feedID string, ts time.Time) error {
	query, args, err := s.sb.
		Insert("feed_watermarks").
		Columns("feed_id", "last_processed").
		Values(feedID, ts.UTC()).
		Suffix("ON CONFLICT (feed_id) DO UPDATE SET last_processed = EXCLUDED.last_processed, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert watermark: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
