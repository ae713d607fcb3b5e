package diagnostic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/ndelacroix/depanneur/pkg/errors"
)

type stubRepository struct {
	symptoms  []Candidate
	problems  []Candidate
	solutions map[int64][]string
	manuals   map[string]string
	toolCount int64

	insertToolErr    error
	insertProblemErr error
	insertSymptomErr error

	insertedTools []string
	manualLinks   []string
}

func (r *stubRepository) InsertTool(_ context.Context, name, _, manualLink string) (int64, error) {
	if r.insertToolErr != nil {
		return 0, r.insertToolErr
	}
	r.insertedTools = append(r.insertedTools, name)
	r.manualLinks = append(r.manualLinks, manualLink)
	return int64(len(r.insertedTools)), nil
}

func (r *stubRepository) InsertProblem(_ context.Context, _ int64, _, _ string, _ []float32) (int64, error) {
	if r.insertProblemErr != nil {
		return 0, r.insertProblemErr
	}
	return 1, nil
}

func (r *stubRepository) InsertSymptom(_ context.Context, _ int64, _ string, _ []float32) (int64, error) {
	if r.insertSymptomErr != nil {
		return 0, r.insertSymptomErr
	}
	return 1, nil
}

func (r *stubRepository) InsertSolution(_ context.Context, _ int64, _ string, _ int) (int64, error) {
	return 1, nil
}

func (r *stubRepository) ListSymptomVectors(_ context.Context) ([]Candidate, error) {
	return r.symptoms, nil
}

func (r *stubRepository) ListProblemVectors(_ context.Context) ([]Candidate, error) {
	return r.problems, nil
}

func (r *stubRepository) SolutionsFor(_ context.Context, problemID int64) ([]string, error) {
	return r.solutions[problemID], nil
}

func (r *stubRepository) ManualLinkFor(_ context.Context, toolName string) (string, error) {
	if link, ok := r.manuals[toolName]; ok {
		return link, nil
	}
	return ManualLinkUnavailable, nil
}

func (r *stubRepository) CountTools(_ context.Context) (int64, error) {
	return r.toolCount, nil
}

func (r *stubRepository) WithinTx(_ context.Context, fn func(Repository) error) error {
	return fn(r)
}

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vector, ok := e.vectors[text]; ok {
		return vector, nil
	}
	return []float32{0, 0, 1}, nil
}

type stubCache struct {
	embeddings map[string][]float32
	trending   []TrendingQuery
	increments []string
}

func (c *stubCache) GetEmbedding(_ context.Context, key string) ([]float32, bool, error) {
	vector, ok := c.embeddings[key]
	return vector, ok, nil
}

func (c *stubCache) SaveEmbedding(_ context.Context, key string, embedding []float32, _ time.Duration) error {
	if c.embeddings == nil {
		c.embeddings = map[string][]float32{}
	}
	c.embeddings[key] = embedding
	return nil
}

func (c *stubCache) IncrementQuery(_ context.Context, canonical, _ string) error {
	c.increments = append(c.increments, canonical)
	return nil
}

func (c *stubCache) TopQueries(_ context.Context, _ int) ([]TrendingQuery, error) {
	return c.trending, nil
}

type stubManuals struct {
	err      error
	resolved map[string]string
}

func (m *stubManuals) Resolve(_ context.Context, link string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.resolved != nil {
		if out, ok := m.resolved[link]; ok {
			return out, nil
		}
	}
	return link, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *stubRepository, embedder *stubEmbedder, cache *stubCache, manuals *stubManuals) Service {
	return NewService(Config{SimilarityThreshold: 0.6}, repo, embedder, cache, manuals, testLogger())
}

func TestProcessQueryMatchesSymptom(t *testing.T) {
	repo := &stubRepository{
		symptoms: []Candidate{
			{ProblemID: 7, ProblemTitle: "Perceuse ne démarre pas", ToolName: "Perceuse sans fil", Embedding: []float32{1, 0, 0}},
		},
		solutions: map[int64][]string{
			7: {"Vérifiez la batterie.", "Nettoyez les contacts.", "Testez une autre batterie."},
		},
		manuals: map[string]string{"Perceuse sans fil": "https://manuel-perceuse.fr"},
	}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"ma perceuse ne s'allume plus": {1, 0, 0},
	}}
	cache := &stubCache{}

	svc := newTestService(repo, embedder, cache, &stubManuals{})

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "Ma perceuse ne s'allume plus"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)
	require.Equal(t, "Perceuse sans fil", resp.ToolName)
	require.Equal(t, "Perceuse ne démarre pas", resp.ProblemTitle)
	require.Equal(t, []string{"Vérifiez la batterie.", "Nettoyez les contacts.", "Testez une autre batterie."}, resp.Solutions)
	require.Equal(t, "https://manuel-perceuse.fr", resp.ManualLink)
	require.InDelta(t, 1.0, resp.Confidence, 1e-6)
	require.Empty(t, resp.Message)
	require.Equal(t, []string{"ma perceuse ne s allume plus"}, cache.increments)
}

func TestProcessQueryNotFoundBelowThreshold(t *testing.T) {
	repo := &stubRepository{
		symptoms: []Candidate{
			{ProblemID: 7, ProblemTitle: "Perceuse ne démarre pas", ToolName: "Perceuse sans fil", Embedding: []float32{1, 0, 0}},
		},
	}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"question sans rapport": {0, 1, 0},
	}}

	svc := newTestService(repo, embedder, &stubCache{}, &stubManuals{})

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "Question sans rapport"})
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, resp.Status)
	require.Equal(t, defaultNotFoundMessage, resp.Message)
	require.Empty(t, resp.Solutions)
}

func TestProcessQueryScoreAtThresholdIsNotFound(t *testing.T) {
	repo := &stubRepository{
		symptoms: []Candidate{
			{ProblemID: 7, ProblemTitle: "exact hit", Embedding: []float32{1, 0, 0}},
		},
	}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"exact hit": {1, 0, 0},
	}}
	svc := NewService(Config{SimilarityThreshold: 1.0}, repo, embedder, &stubCache{}, &stubManuals{}, testLogger())

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "exact hit"})
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, resp.Status)
}

func TestProcessQueryEmptyStore(t *testing.T) {
	svc := newTestService(&stubRepository{}, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "ma perceuse est en panne"})
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, resp.Status)
}

func TestProcessQueryEmptyInput(t *testing.T) {
	svc := newTestService(&stubRepository{}, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	_, err := svc.ProcessQuery(context.Background(), Request{Query: "   "})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestProcessQueryNoVector(t *testing.T) {
	embedder := &stubEmbedder{err: ErrNoVector}
	svc := newTestService(&stubRepository{}, embedder, &stubCache{}, &stubManuals{})

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "zzzz"})
	require.NoError(t, err)
	require.Equal(t, StatusError, resp.Status)
	require.Equal(t, defaultNoVectorMessage, resp.Message)
}

func TestProcessQueryUsesCachedEmbedding(t *testing.T) {
	repo := &stubRepository{
		symptoms: []Candidate{
			{ProblemID: 7, ProblemTitle: "Perceuse ne démarre pas", ToolName: "Perceuse sans fil", Embedding: []float32{1, 0, 0}},
		},
		solutions: map[int64][]string{7: {"Vérifiez la batterie."}},
	}
	embedder := &stubEmbedder{}
	cache := &stubCache{embeddings: map[string][]float32{
		"ma perceuse ne démarre pas": {1, 0, 0},
	}}

	svc := newTestService(repo, embedder, cache, &stubManuals{})

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "Ma perceuse ne démarre pas"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)
	require.Zero(t, embedder.calls)
}

func TestProcessQueryManualResolutionFallsBack(t *testing.T) {
	repo := &stubRepository{
		symptoms: []Candidate{
			{ProblemID: 7, ProblemTitle: "Perceuse ne démarre pas", ToolName: "Perceuse sans fil", Embedding: []float32{1, 0, 0}},
		},
		manuals: map[string]string{"Perceuse sans fil": "minio://manuals/perceuse.pdf"},
	}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"panne": {1, 0, 0},
	}}
	manuals := &stubManuals{err: errors.New("store unreachable")}

	svc := newTestService(repo, embedder, &stubCache{}, manuals)

	resp, err := svc.ProcessQuery(context.Background(), Request{Query: "panne"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, resp.Status)
	require.Equal(t, "minio://manuals/perceuse.pdf", resp.ManualLink)
}

func TestTrending(t *testing.T) {
	cache := &stubCache{trending: []TrendingQuery{
		{Query: "Ma perceuse ne s'allume plus", Count: 4},
		{Query: "Ma scie ne coupe pas droit", Count: 2},
	}}
	svc := newTestService(&stubRepository{}, &stubEmbedder{}, cache, &stubManuals{})

	items, err := svc.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, int64(4), items[0].Count)
}

func TestAddToolDefaultsManualLink(t *testing.T) {
	repo := &stubRepository{}
	svc := newTestService(repo, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	id, err := svc.AddTool(context.Background(), "Ponceuse excentrique", "Outil pour poncer.", "  ")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, []string{ManualLinkUnavailable}, repo.manualLinks)
}

func TestAddToolDuplicate(t *testing.T) {
	repo := &stubRepository{insertToolErr: ErrDuplicateName}
	svc := newTestService(repo, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	_, err := svc.AddTool(context.Background(), "Perceuse sans fil", "", "")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "catalog_conflict"))
}

func TestAddProblemUnknownTool(t *testing.T) {
	repo := &stubRepository{insertProblemErr: ErrUnknownTool}
	svc := newTestService(repo, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	_, err := svc.AddProblem(context.Background(), 99, "Manque de puissance", "description")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "catalog_not_found"))
}

func TestAddSymptomUnknownProblem(t *testing.T) {
	repo := &stubRepository{insertSymptomErr: ErrUnknownProblem}
	svc := newTestService(repo, &stubEmbedder{}, &stubCache{}, &stubManuals{})

	_, err := svc.AddSymptom(context.Background(), 99, "Elle n'a pas de force")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "catalog_not_found"))
}

func TestAddSymptomUnembeddable(t *testing.T) {
	embedder := &stubEmbedder{err: ErrNoVector}
	svc := newTestService(&stubRepository{}, embedder, &stubCache{}, &stubManuals{})

	_, err := svc.AddSymptom(context.Background(), 1, "zzzz")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "no_vector"))
}
