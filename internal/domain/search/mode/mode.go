package mode

import "strings"

// Mode is the retrieval strategy for a search request.
type Mode string

// Search mode constants.
const (
	// Text runs a fuzzy multi-field full-text match.
	Text Mode = "text"
	// Semantic ranks by vector similarity to the embedded query.
	Semantic Mode = "semantic"
	// Hybrid combines text and vector relevance as a boost-weighted OR.
	Hybrid Mode = "hybrid"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Text || m == Semantic || m == Hybrid
}

// NeedsEmbedding reports whether the query must be vectorized before building the request body.
func (m Mode) NeedsEmbedding() bool {
	return m == Semantic || m == Hybrid
}

// Parse normalizes s (case-insensitive) and falls back to def when s is empty.
// The boolean is false for unknown values.
func Parse(s string, def Mode) (Mode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, true
	}
	m := Mode(s)
	return m, m.IsValid()
}
