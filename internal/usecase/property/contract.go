package property

import (
	"context"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// Repository defines the search contract for property listings.
type Repository interface {
	Search(ctx context.Context, req *request.Property, vector []float32) (*result.Response[result.Property], error)
	GetEmbedding(ctx context.Context, id string) ([]float32, error)
	SearchSimilar(ctx context.Context, excludeID string, vector []float32, size int) (*result.Response[result.Property], error)
}

// Embedder vectorizes search queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
