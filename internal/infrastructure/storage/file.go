package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shoma-endo/RssAiSummaryCompilation/internal/ports"
)

// FileStore keeps per-feed watermarks as a JSON object on disk. Writes
// go through a temp file and rename so a crash never leaves a torn
// document behind.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ ports.WatermarkStore = (*FileStore)(nil)

// NewFileStore points the store at a JSON file; the file and its
// directory are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Get returns the stored watermark for the feed, or nil when the feed
// has never been processed.
func (s *FileStore) Get(ctx context.Context, feedID string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.load()
	if err != nil {
		return nil, err
	}
	raw, ok := marks[feedID]
	if !ok {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("parse watermark for %q: %w", feedID, err)
	}
	return &ts, nil
}

// Set records the watermark for the feed.
func (s *FileStore) Set(ctx context.Context, feedID string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.load()
	if err != nil {
		return err
	}
	marks[feedID] = ts.UTC().Format(time.RFC3339Nano)
	return s.save(marks)
}

func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watermark file: %w", err)
	}

	marks := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &marks); err != nil {
			return nil, fmt.Errorf("decode watermark file: %w", err)
		}
	}
	return marks, nil
}

func (s *FileStore) save(marks map[string]string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watermark dir: %w", err)
		}
	}

	raw, err := json.MarshalIndent(marks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watermarks: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write watermark file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace watermark file: %w", err)
	}
	return nil
}
