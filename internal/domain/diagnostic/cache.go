package diagnostic

import (
	"context"
	"time"
)

// Cache holds recomputable per-query state: query embeddings keyed by their
// canonical form, and trending complaint counters. All of it is best-effort;
// the service degrades to recomputation when the cache misbehaves.
type Cache interface {
	GetEmbedding(ctx context.Context, key string) ([]float32, bool, error)
	SaveEmbedding(ctx context.Context, key string, embedding []float32, ttl time.Duration) error
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}
