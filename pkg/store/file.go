package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/patrickmn/go-cache"
)

// FileStore is a MemoryStore whose snapshot is rewritten to disk on every Set,
// so state survives a restart of the client.
type FileStore struct {
	mu    sync.Mutex
	path  string
	cache *cache.Cache
}

var _ KV = (*FileStore)(nil)

// DefaultPath is ~/.workspace/state.gob, or ./.workspace/state.gob without a home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".workspace", "state.gob")
	}
	return filepath.Join(home, ".workspace", "state.gob")
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	c := cache.New(cache.NoExpiration, 0)
	if err := c.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load state file %s: %w", path, err)
	}

	return &FileStore{path: path, cache: c}, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	x, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	v, _ := x.(string)
	return v, true, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(key, value, cache.NoExpiration)
	if err := s.cache.SaveFile(s.path); err != nil {
		return fmt.Errorf("save state file %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Path() string {
	return s.path
}
