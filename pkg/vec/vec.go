package vec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Cosine computes the cosine similarity between two vectors using float64
// accumulation. It returns 0 for empty or zero-norm inputs and for vectors of
// different lengths; callers that need to distinguish a dimension mismatch
// should compare lengths first.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Encode serializes a vector as consecutive 4-byte little-endian float32
// values. This is the persisted blob format used wherever vectors cross a
// byte-oriented boundary (cache values, export files).
func Encode(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Decode parses a blob produced by Encode. A nil or empty blob decodes to an
// empty vector.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// Zero returns the zero vector of the given dimension.
func Zero(dim int) []float32 {
	if dim <= 0 {
		return nil
	}
	return make([]float32, dim)
}
