package wikipedia

import (
	"context"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// Repository defines the search contract for Wikipedia articles, chunks and summaries.
type Repository interface {
	Search(ctx context.Context, req *request.Wikipedia, vector []float32) (*result.Response[result.Wikipedia], error)
}

// Embedder vectorizes search queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
