package store

import (
	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	cache *cache.Cache
}

var _ KV = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	x, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	v, _ := x.(string)
	return v, true, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}
