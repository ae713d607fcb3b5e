package diagcache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

type cachedEmbedding struct {
	vector    []float32
	expiresAt time.Time
}

// MemoryStore is an in-memory diagnostic.Cache used for tests and for running
// without Valkey.
type MemoryStore struct {
	mu         sync.RWMutex
	embeddings map[string]cachedEmbedding
	trending   map[string]int64
	displays   map[string]string
}

// NewMemoryStore constructs a cache backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		embeddings: make(map[string]cachedEmbedding),
		trending:   make(map[string]int64),
		displays:   make(map[string]string),
	}
}

// GetEmbedding implements diagnostic.Cache.
func (s *MemoryStore) GetEmbedding(_ context.Context, key string) ([]float32, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	s.mu.RLock()
	entry, ok := s.embeddings[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if hasExpired(entry.expiresAt) {
		s.mu.Lock()
		delete(s.embeddings, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return append([]float32(nil), entry.vector...), true, nil
}

// SaveEmbedding implements diagnostic.Cache.
func (s *MemoryStore) SaveEmbedding(_ context.Context, key string, embedding []float32, ttl time.Duration) error {
	if key == "" || len(embedding) == 0 {
		return nil
	}
	exp := time.Time{}
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[key] = cachedEmbedding{
		vector:    append([]float32(nil), embedding...),
		expiresAt: exp,
	}
	return nil
}

// IncrementQuery implements diagnostic.Cache.
func (s *MemoryStore) IncrementQuery(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trending[canonical]++
	if _, exists := s.displays[canonical]; !exists {
		s.displays[canonical] = display
	}
	return nil
}

// TopQueries implements diagnostic.Cache.
func (s *MemoryStore) TopQueries(_ context.Context, limit int) ([]diagnostic.TrendingQuery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.trending)
	}
	items := make([]diagnostic.TrendingQuery, 0, len(s.trending))
	for canonical, count := range s.trending {
		display := s.displays[canonical]
		if display == "" {
			display = canonical
		}
		items = append(items, diagnostic.TrendingQuery{Query: display, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Query < items[j].Query
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(time.Now())
}

var _ diagnostic.Cache = (*MemoryStore)(nil)
