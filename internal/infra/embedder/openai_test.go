package embedder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/internal/infra/llm/openai"
)

type stubEmbeddingClient struct {
	resp openai.EmbeddingResponse
	err  error

	lastRequest openai.EmbeddingRequest
}

func (c *stubEmbeddingClient) CreateEmbedding(_ context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error) {
	c.lastRequest = req
	return c.resp, c.err
}

func newOpenAIUnderTest(client embeddingClient, maxTokens int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:    client,
		model:     "text-embedding-3-small",
		dim:       3,
		maxTokens: maxTokens,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var resp openai.EmbeddingResponse
	resp.Data = append(resp.Data, struct {
		Embedding []float32 `json:"embedding"`
	}{Embedding: []float32{0.1, 0.2, 0.3}})
	client := &stubEmbeddingClient{resp: resp}

	e := newOpenAIUnderTest(client, 8192)
	embedding, err := e.Embed(context.Background(), "ma perceuse ne démarre pas")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
	require.Equal(t, []string{"ma perceuse ne démarre pas"}, client.lastRequest.Input)
}

func TestOpenAIEmbedderEmptyInput(t *testing.T) {
	client := &stubEmbeddingClient{}

	e := newOpenAIUnderTest(client, 8192)
	embedding, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 0}, embedding)
	require.Empty(t, client.lastRequest.Input)
}

func TestOpenAIEmbedderEmptyResponseIsNoVector(t *testing.T) {
	client := &stubEmbeddingClient{}

	e := newOpenAIUnderTest(client, 8192)
	_, err := e.Embed(context.Background(), "panne")
	require.ErrorIs(t, err, diagnostic.ErrNoVector)
}

func TestOpenAIEmbedderOverBudgetIsNoVector(t *testing.T) {
	client := &stubEmbeddingClient{}

	e := newOpenAIUnderTest(client, 1)
	_, err := e.Embed(context.Background(), strings.Repeat("panne moteur batterie ", 50))
	require.ErrorIs(t, err, diagnostic.ErrNoVector)
	require.Empty(t, client.lastRequest.Input)
}

func TestOpenAIEmbedderClientError(t *testing.T) {
	client := &stubEmbeddingClient{err: errors.New("api unreachable")}

	e := newOpenAIUnderTest(client, 8192)
	_, err := e.Embed(context.Background(), "panne")
	require.Error(t, err)
	require.NotErrorIs(t, err, diagnostic.ErrNoVector)
}
