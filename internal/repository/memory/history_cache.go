package memory

import (
	"time"

	"agentic-rag-be/pkg/llm"

	"github.com/patrickmn/go-cache"
)

// HistoryCache keeps recently used conversation histories in memory so
// consecutive turns skip the database read. Entries expire on their own;
// the database stays the source of truth.
type HistoryCache struct {
	cache *cache.Cache
}

func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		cache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (r *HistoryCache) Save(conversationId string, history []llm.Message) {
	r.cache.Set(conversationId, history, cache.DefaultExpiration)
}

func (r *HistoryCache) Get(conversationId string) ([]llm.Message, bool) {
	if x, found := r.cache.Get(conversationId); found {
		return x.([]llm.Message), true
	}
	return nil, false
}

func (r *HistoryCache) Invalidate(conversationId string) {
	r.cache.Delete(conversationId)
}
