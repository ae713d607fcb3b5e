package knowledge

import (
	"context"
	"sort"
	"sync"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

// MemoryRepository is an in-memory knowledge store used for tests and for
// running without Postgres. Entities keep insertion order so matcher scans
// are reproducible.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64

	tools       []diagnostic.Tool
	toolsByName map[string]int64
	toolsByID   map[int64]int
	problems    []diagnostic.Problem
	problemsID  map[int64]int
	symptoms    []diagnostic.Symptom
	solutions   []diagnostic.Solution
}

// NewMemoryRepository constructs a repository backed by process memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:      1,
		toolsByName: make(map[string]int64),
		toolsByID:   make(map[int64]int),
		problemsID:  make(map[int64]int),
	}
}

// InsertTool implements diagnostic.Repository.
func (r *MemoryRepository) InsertTool(_ context.Context, name, description, manualLink string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.toolsByName[name]; exists {
		return 0, diagnostic.ErrDuplicateName
	}
	id := r.allocate()
	r.tools = append(r.tools, diagnostic.Tool{
		ID:          id,
		Name:        name,
		Description: description,
		ManualLink:  manualLink,
	})
	r.toolsByName[name] = id
	r.toolsByID[id] = len(r.tools) - 1
	return id, nil
}

// InsertProblem implements diagnostic.Repository.
func (r *MemoryRepository) InsertProblem(_ context.Context, toolID int64, title, description string, embedding []float32) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.toolsByID[toolID]; !ok {
		return 0, diagnostic.ErrUnknownTool
	}
	id := r.allocate()
	r.problems = append(r.problems, diagnostic.Problem{
		ID:          id,
		ToolID:      toolID,
		Title:       title,
		Description: description,
		Embedding:   append([]float32(nil), embedding...),
	})
	r.problemsID[id] = len(r.problems) - 1
	return id, nil
}

// InsertSymptom implements diagnostic.Repository.
func (r *MemoryRepository) InsertSymptom(_ context.Context, problemID int64, phrase string, embedding []float32) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problemsID[problemID]; !ok {
		return 0, diagnostic.ErrUnknownProblem
	}
	id := r.allocate()
	r.symptoms = append(r.symptoms, diagnostic.Symptom{
		ID:        id,
		ProblemID: problemID,
		Phrase:    phrase,
		Embedding: append([]float32(nil), embedding...),
	})
	return id, nil
}

// InsertSolution implements diagnostic.Repository.
func (r *MemoryRepository) InsertSolution(_ context.Context, problemID int64, stepText string, ordinal int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.problemsID[problemID]; !ok {
		return 0, diagnostic.ErrUnknownProblem
	}
	id := r.allocate()
	r.solutions = append(r.solutions, diagnostic.Solution{
		ID:        id,
		ProblemID: problemID,
		StepText:  stepText,
		Ordinal:   ordinal,
	})
	return id, nil
}

// ListSymptomVectors implements diagnostic.Repository.
func (r *MemoryRepository) ListSymptomVectors(_ context.Context) ([]diagnostic.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]diagnostic.Candidate, 0, len(r.symptoms))
	for _, symptom := range r.symptoms {
		problem := r.problems[r.problemsID[symptom.ProblemID]]
		tool := r.tools[r.toolsByID[problem.ToolID]]
		out = append(out, diagnostic.Candidate{
			ProblemID:    problem.ID,
			ProblemTitle: problem.Title,
			ToolName:     tool.Name,
			Embedding:    symptom.Embedding,
		})
	}
	return out, nil
}

// ListProblemVectors implements diagnostic.Repository.
func (r *MemoryRepository) ListProblemVectors(_ context.Context) ([]diagnostic.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]diagnostic.Candidate, 0, len(r.problems))
	for _, problem := range r.problems {
		tool := r.tools[r.toolsByID[problem.ToolID]]
		out = append(out, diagnostic.Candidate{
			ProblemID:    problem.ID,
			ProblemTitle: problem.Title,
			ToolName:     tool.Name,
			Embedding:    problem.Embedding,
		})
	}
	return out, nil
}

// SolutionsFor implements diagnostic.Repository.
func (r *MemoryRepository) SolutionsFor(_ context.Context, problemID int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	steps := make([]diagnostic.Solution, 0, 4)
	for _, solution := range r.solutions {
		if solution.ProblemID == problemID {
			steps = append(steps, solution)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Ordinal < steps[j].Ordinal })
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, step.StepText)
	}
	return out, nil
}

// ManualLinkFor implements diagnostic.Repository.
func (r *MemoryRepository) ManualLinkFor(_ context.Context, toolName string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.toolsByName[toolName]
	if !ok {
		return diagnostic.ManualLinkUnavailable, nil
	}
	return r.tools[r.toolsByID[id]].ManualLink, nil
}

// CountTools implements diagnostic.Repository.
func (r *MemoryRepository) CountTools(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.tools)), nil
}

// WithinTx implements diagnostic.Repository. The memory store is process
// local and seeded before serving begins, so fn runs against the repository
// directly without extra isolation.
func (r *MemoryRepository) WithinTx(_ context.Context, fn func(diagnostic.Repository) error) error {
	return fn(r)
}

func (r *MemoryRepository) allocate() int64 {
	id := r.nextID
	r.nextID++
	return id
}

var _ diagnostic.Repository = (*MemoryRepository)(nil)
