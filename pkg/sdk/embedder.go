package estatesearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// Embedder converts text to vector embeddings.
// Required for semantic and hybrid search; text search works without it.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token count.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// errNoEmbedder is returned by semantic and hybrid searches when no embedder is configured.
var errNoEmbedder = errors.New("estatesearch: embedder not configured (use WithEmbedder for semantic search)")

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{Embedding: r.Embedding, TotalTokens: r.TotalTokens}, nil
}

// noopEmbedder fails every call (used when no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errNoEmbedder
}
