package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore snapshots a service's in-memory state to a JSON file. Each
// service owns one file under the data dir; writes go through a temp file
// and rename so a crash mid-write never leaves a torn snapshot.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONStore(dataDir, filename string) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &JSONStore{path: filepath.Join(dataDir, filename)}, nil
}

// Load decodes the snapshot into dst. A missing file is a fresh store, not
// an error.
func (s *JSONStore) Load(dst interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Save replaces the snapshot atomically.
func (s *JSONStore) Save(src interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Exists reports whether a snapshot has been written before.
func (s *JSONStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	return err == nil
}
