package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns text into a dense vector for semantic and hybrid search.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries a vector and its token cost through the decorator chain.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
	Cached      bool
}

// BatchEmbeddingResult carries vectors in input order plus aggregate token cost.
type BatchEmbeddingResult struct {
	Embeddings  [][]float32
	TotalTokens int
}

// EmbedEach calls Embed once per text. Used for providers without a native batch endpoint.
func EmbedEach(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed [%d]: %w", i, err)
		}
		out.Embeddings[i] = res.Embedding
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

// QueryEmbedder normalizes a search query and prefixes the provider's query instruction
// (e.g. "Represent this query for retrieving listings: ") before embedding.
type QueryEmbedder struct {
	inner       Embedder
	instruction string
}

// NewQueryEmbedder creates a query-side decorator.
func NewQueryEmbedder(inner Embedder, instruction string) *QueryEmbedder {
	return &QueryEmbedder{inner: inner, instruction: instruction}
}

// Embed trims and collapses whitespace in text, then delegates with the instruction prefix.
func (e *QueryEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	q := strings.Join(strings.Fields(text), " ")
	if q == "" {
		return EmbeddingResult{}, NewValidationError("query", "cannot embed an empty query")
	}
	res, err := e.inner.Embed(ctx, e.instruction+q)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("query embed: %w", err)
	}
	return res, nil
}
