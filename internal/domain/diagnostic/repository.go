package diagnostic

import "context"

// Repository is the durable knowledge store for the four catalogue entities.
// Mutations are durable before returning. List operations make no ordering
// promise beyond being stable for a given store, so matches stay reproducible.
type Repository interface {
	// InsertTool fails with ErrDuplicateName if the name is taken.
	InsertTool(ctx context.Context, name, description, manualLink string) (int64, error)

	// InsertProblem fails with ErrUnknownTool for a missing owner.
	InsertProblem(ctx context.Context, toolID int64, title, description string, embedding []float32) (int64, error)

	// InsertSymptom and InsertSolution fail with ErrUnknownProblem for a
	// missing owner.
	InsertSymptom(ctx context.Context, problemID int64, phrase string, embedding []float32) (int64, error)
	InsertSolution(ctx context.Context, problemID int64, stepText string, ordinal int) (int64, error)

	// ListSymptomVectors returns one candidate per stored symptom.
	ListSymptomVectors(ctx context.Context) ([]Candidate, error)

	// ListProblemVectors returns one candidate per stored problem, carrying
	// the problem description embedding.
	ListProblemVectors(ctx context.Context) ([]Candidate, error)

	// SolutionsFor returns step texts ordered by ordinal ascending; an empty
	// slice when the problem has none.
	SolutionsFor(ctx context.Context, problemID int64) ([]string, error)

	// ManualLinkFor returns ManualLinkUnavailable for unknown tool names
	// instead of an error.
	ManualLinkFor(ctx context.Context, toolName string) (string, error)

	// CountTools is the idempotent-seeding probe.
	CountTools(ctx context.Context) (int64, error)

	// WithinTx runs fn against a repository view whose writes become visible
	// atomically, so a reader never observes a partially-seeded catalogue.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}
