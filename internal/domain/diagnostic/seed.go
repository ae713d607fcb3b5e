package diagnostic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Seeder populates an empty knowledge store with the initial tool catalogue.
// Seeding is idempotent: any existing tool means the catalogue is already in
// place and the seeder returns without writing. Integrity failures here are
// meant to abort startup, so errors propagate unwrapped by design codes.
type Seeder struct {
	repo     Repository
	embedder Embedder
	logger   *slog.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(repo Repository, embedder Embedder, logger *slog.Logger) *Seeder {
	return &Seeder{
		repo:     repo,
		embedder: embedder,
		logger:   logger.With("component", "diagnostic.seeder"),
	}
}

// Seed checks the tool count and inserts the default catalogue when the store
// is empty. Embeddings are computed before the transaction opens so the write
// itself stays short; all inserts commit atomically.
func (s *Seeder) Seed(ctx context.Context) error {
	count, err := s.repo.CountTools(ctx)
	if err != nil {
		return fmt.Errorf("seed probe failed: %w", err)
	}
	if count > 0 {
		s.logger.Debug("catalogue already seeded", "tools", count)
		return nil
	}

	catalogue := defaultCatalogue()
	if err := s.embedCatalogue(ctx, catalogue); err != nil {
		return err
	}

	err = s.repo.WithinTx(ctx, func(r Repository) error {
		for _, tool := range catalogue {
			toolID, err := r.InsertTool(ctx, tool.name, tool.description, tool.manualLink)
			if err != nil {
				return fmt.Errorf("seed tool %q: %w", tool.name, err)
			}
			for _, problem := range tool.problems {
				problemID, err := r.InsertProblem(ctx, toolID, problem.title, problem.description, problem.embedding)
				if err != nil {
					return fmt.Errorf("seed problem %q: %w", problem.title, err)
				}
				for i, step := range problem.solutions {
					if _, err := r.InsertSolution(ctx, problemID, step, i+1); err != nil {
						return fmt.Errorf("seed solution %d of %q: %w", i+1, problem.title, err)
					}
				}
				for _, symptom := range problem.symptoms {
					if _, err := r.InsertSymptom(ctx, problemID, symptom.phrase, symptom.embedding); err != nil {
						return fmt.Errorf("seed symptom %q: %w", symptom.phrase, err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("catalogue seeded", "tools", len(catalogue))
	return nil
}

func (s *Seeder) embedCatalogue(ctx context.Context, catalogue []*seedTool) error {
	for _, tool := range catalogue {
		for _, problem := range tool.problems {
			embedding, err := s.embedder.Embed(ctx, strings.ToLower(problem.description))
			if err != nil {
				return fmt.Errorf("embed problem %q: %w", problem.title, err)
			}
			problem.embedding = embedding
			for _, symptom := range problem.symptoms {
				embedding, err := s.embedder.Embed(ctx, strings.ToLower(symptom.phrase))
				if err != nil {
					return fmt.Errorf("embed symptom %q: %w", symptom.phrase, err)
				}
				symptom.embedding = embedding
			}
		}
	}
	return nil
}

type seedTool struct {
	name        string
	description string
	manualLink  string
	problems    []*seedProblem
}

type seedProblem struct {
	title       string
	description string
	embedding   []float32
	solutions   []string
	symptoms    []*seedSymptom
}

type seedSymptom struct {
	phrase    string
	embedding []float32
}

func defaultCatalogue() []*seedTool {
	return []*seedTool{
		{
			name:        "Perceuse sans fil",
			description: "Outil électrique pour percer des trous et visser.",
			manualLink:  "https://manuel-perceuse.fr",
			problems: []*seedProblem{
				{
					title:       "Perceuse ne démarre pas",
					description: "La perceuse ne s'allume pas ou ne tourne pas du tout lorsque le bouton est pressé.",
					solutions: []string{
						"Vérifiez que la batterie est complètement chargée et bien insérée.",
						"Nettoyez les contacts de la batterie et de l'outil.",
						"Testez avec une autre batterie si disponible.",
					},
					symptoms: []*seedSymptom{
						{phrase: "Ma perceuse ne s'allume plus"},
						{phrase: "La perceuse ne tourne pas"},
					},
				},
				{
					title:       "Manque de puissance",
					description: "La perceuse n'a pas assez de force pour percer ou visser correctement.",
					solutions: []string{
						"Vérifiez le niveau de charge de la batterie.",
						"Utilisez une mèche ou un embout adapté au matériau.",
						"Inspectez le mandrin pour tout blocage.",
					},
					symptoms: []*seedSymptom{
						{phrase: "Ma perceuse est faible"},
						{phrase: "Elle n'a pas de force"},
					},
				},
			},
		},
		{
			name:        "Scie circulaire",
			description: "Outil pour couper le bois en ligne droite.",
			manualLink:  "https://manuel-scie-circulaire.fr",
			problems: []*seedProblem{
				{
					title:       "Coupes imprécises ou inégales",
					description: "La scie ne coupe pas droit ou laisse des bords rugueux.",
					solutions: []string{
						"Vérifiez l'alignement de la lame par rapport au guide.",
						"Assurez-vous que la lame est propre et affûtée, remplacez-la si nécessaire.",
						"Fixez solidement le matériau à couper.",
					},
					symptoms: []*seedSymptom{
						{phrase: "Ma scie ne coupe pas droit"},
						{phrase: "Les bords sont rugueux après la coupe"},
					},
				},
			},
		},
		{
			name:        "Ponceuse excentrique",
			description: "Outil pour poncer des surfaces lisses.",
			manualLink:  "https://manuel-ponceuse.fr",
		},
	}
}
