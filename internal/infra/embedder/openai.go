package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/internal/infra/llm/openai"
	"github.com/ndelacroix/depanneur/pkg/metrics"
	"github.com/ndelacroix/depanneur/pkg/vec"
)

const fallbackEncoding = "cl100k_base"

type embeddingClient interface {
	CreateEmbedding(ctx context.Context, req openai.EmbeddingRequest) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder adapts an OpenAI-compatible embeddings API to
// diagnostic.Embedder. Inputs beyond the model's token budget are rejected as
// unrepresentable rather than silently truncated.
type OpenAIEmbedder struct {
	client    embeddingClient
	model     string
	dim       int
	maxTokens int
	encoder   *tiktoken.Tiktoken
	logger    *slog.Logger
}

// NewOpenAIEmbedder constructs the embedder. dim is the model's output
// dimension, used to produce the zero vector for empty input. maxTokens
// bounds accepted input size (0 keeps the provider default of 8192).
func NewOpenAIEmbedder(client *openai.Client, model string, dim, maxTokens int, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			// Token counting degrades to a rune-based estimate.
			encoder = nil
		}
	}
	return &OpenAIEmbedder{
		client:    client,
		model:     strings.TrimSpace(model),
		dim:       dim,
		maxTokens: maxTokens,
		encoder:   encoder,
		logger:    logger.With("component", "embedder.openai"),
	}
}

// Embed implements diagnostic.Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return vec.Zero(e.dim), nil
	}

	if tokens := e.countTokens(text); tokens > e.maxTokens {
		return nil, fmt.Errorf("input of %d tokens exceeds budget of %d: %w", tokens, e.maxTokens, diagnostic.ErrNoVector)
	}

	resp, err := e.client.CreateEmbedding(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, diagnostic.ErrNoVector
	}

	usage := metrics.TokenUsage{PromptTokens: resp.Usage.PromptTokens, TotalTokens: resp.Usage.TotalTokens}
	if !usage.IsZero() {
		e.logger.Debug("embedding usage", "prompt_tokens", usage.PromptTokens, "total_tokens", usage.TotalTokens)
	}

	embedding := make([]float32, len(resp.Data[0].Embedding))
	copy(embedding, resp.Data[0].Embedding)
	return embedding, nil
}

func (e *OpenAIEmbedder) countTokens(text string) int {
	if e.encoder != nil {
		return len(e.encoder.Encode(text, nil, nil))
	}
	// Upper-biased estimate: ~1 token per 2 runes, never below word count.
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}

var _ diagnostic.Embedder = (*OpenAIEmbedder)(nil)
