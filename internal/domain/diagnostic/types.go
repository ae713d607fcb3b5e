package diagnostic

// Status values carried by Response.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// ManualLinkUnavailable is the sentinel returned when no manual is known for a
// tool. Lookups by tool name never fail, they fall back to this value.
const ManualLinkUnavailable = "unavailable"

// Tool is a catalogue entry users complain about. Name is unique.
type Tool struct {
	ID          int64
	Name        string
	Description string
	ManualLink  string
}

// Problem is a known failure mode of a tool. Embedding is derived from
// Description once, at write time.
type Problem struct {
	ID          int64
	ToolID      int64
	Title       string
	Description string
	Embedding   []float32
}

// Symptom is a colloquial phrasing that should resolve to its owning problem.
type Symptom struct {
	ID        int64
	ProblemID int64
	Phrase    string
	Embedding []float32
}

// Solution is one repair step. Ordinal defines display order within a problem.
type Solution struct {
	ID        int64
	ProblemID int64
	StepText  string
	Ordinal   int
}

// Candidate is one row considered by the matcher: the owning problem together
// with the stored embedding of either a symptom phrase (symptom tier) or the
// problem description (problem tier).
type Candidate struct {
	ProblemID    int64
	ProblemTitle string
	ToolName     string
	Embedding    []float32
}

// Match is the best candidate across both tiers and its similarity score.
type Match struct {
	ProblemID    int64
	ProblemTitle string
	ToolName     string
	Score        float64
}

// Request encapsulates one diagnostic query.
type Request struct {
	Query string `json:"query"`
}

// Response is the caller-facing result. Exactly one of the three shapes is
// populated, discriminated by Status: success carries the match fields,
// not_found and error carry only Message.
type Response struct {
	Status       string   `json:"status"`
	ToolName     string   `json:"tool_name,omitempty"`
	ProblemTitle string   `json:"problem_title,omitempty"`
	Solutions    []string `json:"solutions,omitempty"`
	ManualLink   string   `json:"manual_link,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// TrendingQuery represents a frequently asked complaint.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
