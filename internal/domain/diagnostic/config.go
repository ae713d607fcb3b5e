package diagnostic

import "time"

// Config holds runtime knobs for the diagnostic service. The similarity
// threshold is deliberately tunable; 0.6 is the value the catalogue was
// calibrated against.
type Config struct {
	SimilarityThreshold float64
	EmbedTimeout        time.Duration
	CacheTTL            time.Duration
	TopRecommendations  int
	NotFoundMessage     string
	NoVectorMessage     string
}

const (
	defaultSimilarityThreshold = 0.6
	defaultEmbedTimeout        = 10 * time.Second
	defaultTopRecommendations  = 10
)

const (
	defaultNotFoundMessage = "Désolé, je n'ai pas pu identifier un problème spécifique avec les informations que vous avez fournies. Pouvez-vous être plus précis sur l'outil ou le symptôme ?"
	defaultNoVectorMessage = "Je n'arrive pas à interpréter cette demande. Pouvez-vous la reformuler avec d'autres mots ?"
)
