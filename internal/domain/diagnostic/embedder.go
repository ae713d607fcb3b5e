package diagnostic

import "context"

// Embedder converts text into a fixed-dimension vector. Implementations must
// be deterministic for identical input, return the zero vector of the model
// dimension for empty text, and return ErrNoVector for inputs the model
// cannot represent.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
