package ratelimit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists the window as a JSON list of epoch timestamps,
// rewritten in full on every save.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path. Parent directories are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the saved timestamps. A missing file is an empty window.
func (s *FileStore) Load() ([]time.Time, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rate window: %w", err)
	}

	var epochs []float64
	if err := json.Unmarshal(raw, &epochs); err != nil {
		return nil, fmt.Errorf("decode rate window: %w", err)
	}

	stamps := make([]time.Time, 0, len(epochs))
	for _, e := range epochs {
		sec := int64(e)
		nsec := int64((e - float64(sec)) * float64(time.Second))
		stamps = append(stamps, time.Unix(sec, nsec))
	}
	return stamps, nil
}

// Save replaces the saved timestamps.
func (s *FileStore) Save(stamps []time.Time) error {
	epochs := make([]float64, 0, len(stamps))
	for _, t := range stamps {
		epochs = append(epochs, float64(t.UnixNano())/float64(time.Second))
	}

	raw, err := json.Marshal(epochs)
	if err != nil {
		return fmt.Errorf("encode rate window: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write rate window: %w", err)
	}
	return nil
}
