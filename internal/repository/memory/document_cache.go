package memory

import (
	"time"

	"knowledge-workspace/internal/entity"

	"github.com/patrickmn/go-cache"
)

const allDocumentsKey = "documents:all"

// DocumentCache holds the unfiltered document list between change events.
type DocumentCache struct {
	cache *cache.Cache
}

func NewDocumentCache(ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *DocumentCache) SaveAll(docs []*entity.Document) {
	r.cache.Set(allDocumentsKey, docs, cache.DefaultExpiration)
}

func (r *DocumentCache) GetAll() ([]*entity.Document, bool) {
	if x, found := r.cache.Get(allDocumentsKey); found {
		return x.([]*entity.Document), true
	}
	return nil, false
}

func (r *DocumentCache) Invalidate() {
	r.cache.Delete(allDocumentsKey)
}
