package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps stats in a single JSON file. A missing or unreadable file
// reads as empty stats and is replaced on the next write.
type FileStore struct {
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create stats dir: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// Path returns the stats file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) AddVideo(ctx context.Context, ip, name string) error {
	return s.add(newEvent(KindVideo, s.now(), ip, name))
}

func (s *FileStore) AddDownload(ctx context.Context, ip, name string) error {
	return s.add(newEvent(KindDownload, s.now(), ip, name))
}

func (s *FileStore) add(e event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	st.apply(e)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write stats file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace stats file: %w", err)
	}
	return nil
}

func (s *FileStore) Snapshot(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(), nil
}

func (s *FileStore) load() Stats {
	st := Empty()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return st
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return Empty()
	}
	st.normalize()
	return st
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
