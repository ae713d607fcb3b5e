package diagnostic

import "github.com/ndelacroix/depanneur/pkg/vec"

// BestMatch maps a query embedding to the single closest problem, or reports
// that no candidate exists.
//
// The search runs in two tiers sharing one running maximum. Symptom phrasings
// are scanned first because they are closer in register to how users actually
// write. Only when that tier stays below threshold are the formal problem
// descriptions scanned as well, into the same maximum: a problem-tier
// candidate can therefore only replace a symptom-tier best by scoring strictly
// higher, never by the maximum being reset between tiers.
//
// Candidates whose embedding dimension differs from the query's are skipped
// silently; they are stale rows written under another embedding model, not an
// error. Ties keep the first-encountered candidate in the repository's list
// order.
//
// Interpreting the result is the caller's job: a returned score at or below
// its acceptance threshold means no match.
func BestMatch(query []float32, symptoms, problems []Candidate, threshold float64) (Match, bool) {
	var (
		best  Match
		found bool
	)

	scan := func(tier []Candidate) {
		for _, c := range tier {
			if len(c.Embedding) != len(query) {
				continue
			}
			score := vec.Cosine(query, c.Embedding)
			if !found || score > best.Score {
				found = true
				best = Match{
					ProblemID:    c.ProblemID,
					ProblemTitle: c.ProblemTitle,
					ToolName:     c.ToolName,
					Score:        score,
				}
			}
		}
	}

	scan(symptoms)
	if !found || best.Score < threshold {
		scan(problems)
	}

	return best, found
}
