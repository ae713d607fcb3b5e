package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, letting
// the same repository run against the pool or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements diagnostic.Repository on Postgres with
// pgvector-typed embedding columns.
type PostgresRepository struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: pool, pool: pool}
}

// EnsureSchema creates the catalogue tables when missing. Embedding columns
// are dimensionless vectors on purpose: rows written under an older embedding
// model must stay readable so the matcher can skip them by dimension.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS tools (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			manual_link TEXT NOT NULL DEFAULT 'unavailable'
		)`,
		`CREATE TABLE IF NOT EXISTS problems (
			id BIGSERIAL PRIMARY KEY,
			tool_id BIGINT NOT NULL REFERENCES tools(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			embedding vector NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS symptoms (
			id BIGSERIAL PRIMARY KEY,
			problem_id BIGINT NOT NULL REFERENCES problems(id),
			phrase TEXT NOT NULL,
			embedding vector NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS solutions (
			id BIGSERIAL PRIMARY KEY,
			problem_id BIGINT NOT NULL REFERENCES problems(id),
			step_text TEXT NOT NULL,
			ordinal INTEGER NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertTool implements diagnostic.Repository.
func (r *PostgresRepository) InsertTool(ctx context.Context, name, description, manualLink string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO tools (name, description, manual_link)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, description, manualLink).Scan(&id)
	if err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return 0, diagnostic.ErrDuplicateName
		}
		return 0, err
	}
	return id, nil
}

// InsertProblem implements diagnostic.Repository.
func (r *PostgresRepository) InsertProblem(ctx context.Context, toolID int64, title, description string, embedding []float32) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO problems (tool_id, title, description, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, toolID, title, description, pgvector.NewVector(embedding)).Scan(&id)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return 0, diagnostic.ErrUnknownTool
		}
		return 0, err
	}
	return id, nil
}

// InsertSymptom implements diagnostic.Repository.
func (r *PostgresRepository) InsertSymptom(ctx context.Context, problemID int64, phrase string, embedding []float32) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO symptoms (problem_id, phrase, embedding)
		VALUES ($1, $2, $3)
		RETURNING id
	`, problemID, phrase, pgvector.NewVector(embedding)).Scan(&id)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return 0, diagnostic.ErrUnknownProblem
		}
		return 0, err
	}
	return id, nil
}

// InsertSolution implements diagnostic.Repository.
func (r *PostgresRepository) InsertSolution(ctx context.Context, problemID int64, stepText string, ordinal int) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO solutions (problem_id, step_text, ordinal)
		VALUES ($1, $2, $3)
		RETURNING id
	`, problemID, stepText, ordinal).Scan(&id)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return 0, diagnostic.ErrUnknownProblem
		}
		return 0, err
	}
	return id, nil
}

// ListSymptomVectors implements diagnostic.Repository. Rows come back in
// primary key order so scans stay reproducible.
func (r *PostgresRepository) ListSymptomVectors(ctx context.Context) ([]diagnostic.Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.title, t.name, s.embedding
		FROM symptoms s
		JOIN problems p ON s.problem_id = p.id
		JOIN tools t ON p.tool_id = t.id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// ListProblemVectors implements diagnostic.Repository.
func (r *PostgresRepository) ListProblemVectors(ctx context.Context) ([]diagnostic.Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.title, t.name, p.embedding
		FROM problems p
		JOIN tools t ON p.tool_id = t.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, err
	}
	return scanCandidates(rows)
}

// SolutionsFor implements diagnostic.Repository.
func (r *PostgresRepository) SolutionsFor(ctx context.Context, problemID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT step_text
		FROM solutions
		WHERE problem_id = $1
		ORDER BY ordinal
	`, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]string, 0, 4)
	for rows.Next() {
		var step string
		if err := rows.Scan(&step); err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// ManualLinkFor implements diagnostic.Repository.
func (r *PostgresRepository) ManualLinkFor(ctx context.Context, toolName string) (string, error) {
	var link string
	err := r.db.QueryRow(ctx, `
		SELECT manual_link FROM tools WHERE name = $1
	`, toolName).Scan(&link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return diagnostic.ManualLinkUnavailable, nil
		}
		return "", err
	}
	return link, nil
}

// CountTools implements diagnostic.Repository.
func (r *PostgresRepository) CountTools(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tools`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// WithinTx implements diagnostic.Repository. Writes made through the view
// passed to fn commit atomically; a nested call reuses the open transaction.
func (r *PostgresRepository) WithinTx(ctx context.Context, fn func(diagnostic.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&PostgresRepository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanCandidates(rows pgx.Rows) ([]diagnostic.Candidate, error) {
	defer rows.Close()
	out := make([]diagnostic.Candidate, 0, 16)
	for rows.Next() {
		var (
			candidate diagnostic.Candidate
			embedding pgvector.Vector
		)
		if err := rows.Scan(&candidate.ProblemID, &candidate.ProblemTitle, &candidate.ToolName, &embedding); err != nil {
			return nil, err
		}
		candidate.Embedding = append([]float32(nil), embedding.Slice()...)
		out = append(out, candidate)
	}
	return out, rows.Err()
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

var _ diagnostic.Repository = (*PostgresRepository)(nil)
