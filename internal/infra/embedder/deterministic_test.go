package embedder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeterministicEmbedderIsStable(t *testing.T) {
	e := NewDeterministicEmbedder(16)
	ctx := context.Background()

	first, err := e.Embed(ctx, "ma perceuse ne démarre pas")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "ma perceuse ne démarre pas")
	require.NoError(t, err)

	require.Len(t, first, 16)
	require.Equal(t, first, second)
}

func TestDeterministicEmbedderDistinguishesInputs(t *testing.T) {
	e := NewDeterministicEmbedder(16)
	ctx := context.Background()

	a, err := e.Embed(ctx, "ma perceuse ne démarre pas")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "ma scie ne coupe pas droit")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestDeterministicEmbedderEmptyInput(t *testing.T) {
	e := NewDeterministicEmbedder(8)

	vector, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, vector, 8)
	for _, v := range vector {
		require.Zero(t, v)
	}
}

func TestDeterministicEmbedderDefaultDimension(t *testing.T) {
	e := NewDeterministicEmbedder(0)

	vector, err := e.Embed(context.Background(), "panne")
	require.NoError(t, err)
	require.Len(t, vector, 32)
}
