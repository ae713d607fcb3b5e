package diagnostic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/ndelacroix/depanneur/pkg/errors"
)

// Service exposes the diagnostic assistant and its catalogue administration.
type Service interface {
	// ProcessQuery answers a free-text complaint with the closest known
	// problem, or a structured not_found/error result.
	ProcessQuery(ctx context.Context, req Request) (Response, error)

	// Trending returns the most frequent complaints.
	Trending(ctx context.Context) ([]TrendingQuery, error)

	// Catalogue administration. Problem and symptom texts are embedded at
	// write time; queries never re-embed stored entries.
	AddTool(ctx context.Context, name, description, manualLink string) (int64, error)
	AddProblem(ctx context.Context, toolID int64, title, description string) (int64, error)
	AddSymptom(ctx context.Context, problemID int64, phrase string) (int64, error)
	AddSolution(ctx context.Context, problemID int64, stepText string, ordinal int) (int64, error)
}

type service struct {
	cfg      Config
	repo     Repository
	embedder Embedder
	cache    Cache
	manuals  ManualLibrary
	logger   *slog.Logger
}

// NewService wires up the diagnostic domain.
func NewService(cfg Config, repo Repository, embedder Embedder, cache Cache, manuals ManualLibrary, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		embedder: embedder,
		cache:    cache,
		manuals:  manuals,
		logger:   logger.With("component", "diagnostic.service"),
	}
}

func (s *service) ProcessQuery(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, apperrors.Wrap("invalid_input", "query cannot be empty", nil)
	}

	canonical := normalizeQuery(query)

	embedding, err := s.queryEmbedding(ctx, canonical, strings.ToLower(query))
	if err != nil {
		if errors.Is(err, ErrNoVector) {
			return Response{Status: StatusError, Message: s.noVectorMessage()}, nil
		}
		return Response{}, apperrors.Wrap("diagnostic_error", "embedding failed", err)
	}

	symptoms, err := s.repo.ListSymptomVectors(ctx)
	if err != nil {
		return Response{}, apperrors.Wrap("diagnostic_error", "symptom scan failed", err)
	}
	problems, err := s.repo.ListProblemVectors(ctx)
	if err != nil {
		return Response{}, apperrors.Wrap("diagnostic_error", "problem scan failed", err)
	}

	if err := s.cache.IncrementQuery(ctx, canonical, query); err != nil {
		s.logger.Warn("trending increment failed", "error", err)
	}

	match, found := BestMatch(embedding, symptoms, problems, s.threshold())
	if !found || match.Score <= s.threshold() {
		return Response{Status: StatusNotFound, Message: s.notFoundMessage()}, nil
	}

	solutions, err := s.repo.SolutionsFor(ctx, match.ProblemID)
	if err != nil {
		return Response{}, apperrors.Wrap("diagnostic_error", "solution lookup failed", err)
	}
	link, err := s.repo.ManualLinkFor(ctx, match.ToolName)
	if err != nil {
		return Response{}, apperrors.Wrap("diagnostic_error", "manual lookup failed", err)
	}
	resolved, err := s.manuals.Resolve(ctx, link)
	if err != nil {
		s.logger.Warn("manual link resolution failed", "tool", match.ToolName, "error", err)
		resolved = link
	}

	s.logger.Debug("query matched", "problem_id", match.ProblemID, "score", match.Score)

	return Response{
		Status:       StatusSuccess,
		ToolName:     match.ToolName,
		ProblemTitle: match.ProblemTitle,
		Solutions:    solutions,
		ManualLink:   resolved,
		Confidence:   match.Score,
	}, nil
}

func (s *service) Trending(ctx context.Context) ([]TrendingQuery, error) {
	limit := s.cfg.TopRecommendations
	if limit <= 0 {
		limit = defaultTopRecommendations
	}
	items, err := s.cache.TopQueries(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap("diagnostic_error", "failed to load trending queries", err)
	}
	return items, nil
}

func (s *service) AddTool(ctx context.Context, name, description, manualLink string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Wrap("invalid_input", "tool name cannot be empty", nil)
	}
	if strings.TrimSpace(manualLink) == "" {
		manualLink = ManualLinkUnavailable
	}
	id, err := s.repo.InsertTool(ctx, name, description, manualLink)
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return 0, apperrors.Wrap("catalog_conflict", fmt.Sprintf("tool %q already exists", name), err)
		}
		return 0, apperrors.Wrap("catalog_error", "failed to insert tool", err)
	}
	return id, nil
}

func (s *service) AddProblem(ctx context.Context, toolID int64, title, description string) (int64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, apperrors.Wrap("invalid_input", "problem title cannot be empty", nil)
	}
	embedding, err := s.writeEmbedding(ctx, description)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.InsertProblem(ctx, toolID, title, description, embedding)
	if err != nil {
		if errors.Is(err, ErrUnknownTool) {
			return 0, apperrors.Wrap("catalog_not_found", fmt.Sprintf("tool %d does not exist", toolID), err)
		}
		return 0, apperrors.Wrap("catalog_error", "failed to insert problem", err)
	}
	return id, nil
}

func (s *service) AddSymptom(ctx context.Context, problemID int64, phrase string) (int64, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return 0, apperrors.Wrap("invalid_input", "symptom phrase cannot be empty", nil)
	}
	embedding, err := s.writeEmbedding(ctx, phrase)
	if err != nil {
		return 0, err
	}
	id, err := s.repo.InsertSymptom(ctx, problemID, phrase, embedding)
	if err != nil {
		if errors.Is(err, ErrUnknownProblem) {
			return 0, apperrors.Wrap("catalog_not_found", fmt.Sprintf("problem %d does not exist", problemID), err)
		}
		return 0, apperrors.Wrap("catalog_error", "failed to insert symptom", err)
	}
	return id, nil
}

func (s *service) AddSolution(ctx context.Context, problemID int64, stepText string, ordinal int) (int64, error) {
	stepText = strings.TrimSpace(stepText)
	if stepText == "" {
		return 0, apperrors.Wrap("invalid_input", "solution step cannot be empty", nil)
	}
	id, err := s.repo.InsertSolution(ctx, problemID, stepText, ordinal)
	if err != nil {
		if errors.Is(err, ErrUnknownProblem) {
			return 0, apperrors.Wrap("catalog_not_found", fmt.Sprintf("problem %d does not exist", problemID), err)
		}
		return 0, apperrors.Wrap("catalog_error", "failed to insert solution", err)
	}
	return id, nil
}

// queryEmbedding recalls the embedding for a canonical query from the cache
// or computes it fresh, bounded by the embed timeout. Expiry is reported as
// the no-vector error kind.
func (s *service) queryEmbedding(ctx context.Context, canonical, text string) ([]float32, error) {
	cached, ok, err := s.cache.GetEmbedding(ctx, canonical)
	if err != nil {
		s.logger.Warn("embedding cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout())
	defer cancel()

	embedding, err := s.embedder.Embed(embedCtx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding timed out: %w", ErrNoVector)
		}
		return nil, err
	}
	if len(embedding) == 0 {
		return nil, ErrNoVector
	}

	if err := s.cache.SaveEmbedding(ctx, canonical, embedding, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("embedding cache write failed", "error", err)
	}
	return embedding, nil
}

func (s *service) writeEmbedding(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout())
	defer cancel()

	embedding, err := s.embedder.Embed(embedCtx, strings.ToLower(strings.TrimSpace(text)))
	if err != nil {
		if errors.Is(err, ErrNoVector) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap("no_vector", "text cannot be embedded", err)
		}
		return nil, apperrors.Wrap("catalog_error", "embedding failed", err)
	}
	return embedding, nil
}

func (s *service) threshold() float64 {
	if s.cfg.SimilarityThreshold > 0 {
		return s.cfg.SimilarityThreshold
	}
	return defaultSimilarityThreshold
}

func (s *service) embedTimeout() time.Duration {
	if s.cfg.EmbedTimeout > 0 {
		return s.cfg.EmbedTimeout
	}
	return defaultEmbedTimeout
}

func (s *service) notFoundMessage() string {
	if s.cfg.NotFoundMessage != "" {
		return s.cfg.NotFoundMessage
	}
	return defaultNotFoundMessage
}

func (s *service) noVectorMessage() string {
	if s.cfg.NoVectorMessage != "" {
		return s.cfg.NoVectorMessage
	}
	return defaultNoVectorMessage
}
