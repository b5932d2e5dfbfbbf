package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

var watermarkBucket = []byte("watermarks")

// BoltStore keeps per-feed watermarks in a bbolt bucket, one
// RFC3339Nano value per feed id.
type BoltStore struct {
	db *bolt.DB
}

var _ ports.WatermarkStore = (*BoltStore)(nil)

// OpenBolt opens (or creates) the database file and its bucket.
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(watermarkBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get returns the stored watermark for the feed, or nil when absent.
func (s *BoltStore) Get(ctx context.Context, feedID string) (*time.Time, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(watermarkBucket).Get([]byte(feedID)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse watermark for %q: %w", feedID, err)
	}
	return &ts, nil
}

// Set records the watermark for the feed.
func (s *BoltStore) Set(ctx context.Context, feedID string, ts time.Time) error {
	value := []byte(ts.UTC().Format(time.RFC3339Nano))
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(watermarkBucket).Put([]byte(feedID), value)
	})
	if err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
