package embedder

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/pkg/vec"
)

// DeterministicEmbedder avoids network calls by hashing text into a
// pseudo-random vector of fixed dimension. Identical input always produces
// the identical vector, which is all the matcher contract requires; it is
// the default when no embedding API is configured and the double used in
// tests.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 32
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed implements diagnostic.Embedder.
func (e *DeterministicEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return vec.Zero(e.dim), nil
	}
	vector := make([]float32, e.dim)
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(text))
	seed := hash.Sum64()
	for i := 0; i < e.dim; i++ {
		seed = seed*1099511628211 + 1469598103934665603
		vector[i] = float32(seed%997) / 997.0
	}
	return vector, nil
}

var _ diagnostic.Embedder = (*DeterministicEmbedder)(nil)
