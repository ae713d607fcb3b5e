package diagcache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/pkg/vec"
)

// ValkeyStore implements diagnostic.Cache on a Valkey-compatible database.
// Embeddings are stored as raw float32 little-endian blobs (Valkey strings
// are binary safe), trending complaints as a ZSET of canonical forms.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "diag"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// GetEmbedding implements diagnostic.Cache.
func (s *ValkeyStore) GetEmbedding(ctx context.Context, key string) ([]float32, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	cmd := s.client.B().Get().Key(s.embeddingKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	embedding, err := vec.Decode([]byte(payload))
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached embedding for %q: %w", key, err)
	}
	return embedding, true, nil
}

// SaveEmbedding implements diagnostic.Cache.
func (s *ValkeyStore) SaveEmbedding(ctx context.Context, key string, embedding []float32, ttl time.Duration) error {
	if key == "" || len(embedding) == 0 {
		return nil
	}
	builder := s.client.B().Set().Key(s.embeddingKey(key)).Value(string(vec.Encode(embedding)))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// IncrementQuery implements diagnostic.Cache.
func (s *ValkeyStore) IncrementQuery(ctx context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Zincrby().Key(s.trendingKey()).Increment(1).Member(canonical).Build()).Error(); err != nil {
		return err
	}
	if display != "" {
		_ = s.client.Do(ctx, s.client.B().Set().Key(s.displayKey(canonical)).Value(display).Nx().Build()).Error()
	}
	return nil
}

// TopQueries implements diagnostic.Cache.
func (s *ValkeyStore) TopQueries(ctx context.Context, limit int) ([]diagnostic.TrendingQuery, error) {
	if limit <= 0 {
		limit = 10
	}
	resp := s.client.Do(ctx, s.client.B().Zrevrange().Key(s.trendingKey()).Start(0).Stop(int64(limit-1)).Withscores().Build())
	arr, err := resp.ToArray()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]diagnostic.TrendingQuery, 0, len(arr))
	for i := 0; i < len(arr); {
		var (
			member string
			score  float64
		)
		if tuple, tupleErr := arr[i].ToArray(); tupleErr == nil && len(tuple) == 2 {
			// RESP3 returns [member, score] per element
			if member, err = tuple[0].ToString(); err != nil {
				if valkey.IsValkeyNil(err) {
					i++
					continue
				}
				return nil, err
			}
			if score, err = tuple[1].ToFloat64(); err != nil {
				return nil, err
			}
			i++
		} else {
			// RESP2 returns a flat alternating array.
			if i+1 >= len(arr) {
				break
			}
			if member, err = arr[i].ToString(); err != nil {
				if valkey.IsValkeyNil(err) {
					i += 2
					continue
				}
				return nil, err
			}
			if score, err = arr[i+1].ToFloat64(); err != nil {
				return nil, err
			}
			i += 2
		}
		display := s.fetchDisplay(ctx, member)
		out = append(out, diagnostic.TrendingQuery{Query: display, Count: int64(score)})
	}
	return out, nil
}

func (s *ValkeyStore) fetchDisplay(ctx context.Context, canonical string) string {
	resp := s.client.Do(ctx, s.client.B().Get().Key(s.displayKey(canonical)).Build())
	display, err := resp.ToString()
	if err != nil || display == "" {
		return canonical
	}
	return display
}

func (s *ValkeyStore) embeddingKey(key string) string {
	return fmt.Sprintf("%s:emb:%s", s.prefix, key)
}

func (s *ValkeyStore) trendingKey() string {
	return fmt.Sprintf("%s:trending", s.prefix)
}

func (s *ValkeyStore) displayKey(canonical string) string {
	return fmt.Sprintf("%s:display:%s", s.prefix, canonical)
}

var _ diagnostic.Cache = (*ValkeyStore)(nil)
