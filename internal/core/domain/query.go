package domain

// Query is a question asked against the knowledge base.
// Queries are ephemeral and never persisted.
type Query struct {
	// Question is the free-text question.
	Question string

	// Language is the language the answer should be written in.
	Language string

	// UserContext describes the asking business, if known.
	UserContext *UserContext

	// MaxResults overrides the configured number of chunks to retrieve.
	MaxResults int

	// Categories restricts retrieval to documents in these categories.
	Categories []Category
}

// UserContext carries facts about the asking business that shape the answer.
type UserContext struct {
	BusinessType string  `json:"businessType,omitempty"`
	TaxID        string  `json:"taxId,omitempty"`
	AnnualIncome float64 `json:"annualIncome,omitempty"`
	FlatTax      bool    `json:"flatTax,omitempty"`
	VATPayer     bool    `json:"vatPayer,omitempty"`
}

// AnswerState is a step of the answer state machine.
type AnswerState string

// Answer states in the order they are visited.
const (
	StateEmbedQuery       AnswerState = "EMBED_QUERY"
	StateRetrieve         AnswerState = "RETRIEVE"
	StateNoMatch          AnswerState = "NO_MATCH"
	StateBuildContext     AnswerState = "BUILD_CONTEXT"
	StateGenerate         AnswerState = "GENERATE"
	StateAttributeSources AnswerState = "ATTRIBUTE_SOURCES"
	StateDone             AnswerState = "DONE"
)

// QueryResult is the grounded answer to a Query.
type QueryResult struct {
	// Answer is the generated (or fallback) answer text.
	Answer string

	// Sources are citations for every document that contributed context.
	// Empty only when State is StateNoMatch.
	Sources []SourceCitation

	// Confidence is a heuristic in [0,1] derived from retrieval scores.
	Confidence float64

	// Chunks are the retrieved chunks, without embeddings.
	Chunks []Chunk

	// State is the terminal state the query reached.
	State AnswerState

	// Provider is the generation provider that produced Answer.
	Provider string
}

// SourceCitation is a human-facing reference to a contributing document.
type SourceCitation struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Source   string   `json:"source"`
	Excerpt  string   `json:"relevantExcerpt"`
	Category Category `json:"category"`
}

// ConfidenceBoost scales the mean retrieval score into a confidence value.
const ConfidenceBoost = 1.2

// Confidence is min(mean(scores)*ConfidenceBoost, 1), clamped to [0,1].
// It is a heuristic over cosine scores, not a calibrated probability, and
// values from queries with different result counts are not comparable.
func Confidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	c := sum / float64(len(scores)) * ConfidenceBoost
	switch {
	case c > 1:
		return 1
	case c < 0:
		return 0
	}
	return c
}
