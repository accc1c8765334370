package neighborhood

import (
	"context"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// Repository searches neighborhood articles and their related articles.
type Repository interface {
	SearchNeighborhoods(
		ctx context.Context, req *request.Neighborhood, vector []float32,
	) (*result.Response[result.Neighborhood], error)
	RelatedArticles(
		ctx context.Context, neighborhoods []result.Neighborhood, size int,
	) (map[string][]result.Wikipedia, error)
}

// StatsReader aggregates property listings of an area.
type StatsReader interface {
	Stats(ctx context.Context, city, state string) (*result.Stats, error)
}

// Embedder vectorizes search queries.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
