// Package property runs property listing searches: text, semantic, hybrid, geo-radius and
// more-like-this.
package property

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/logger"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
)

const entity = "property"

// Service handles property searches. It holds no per-request state.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a property search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Search executes a validated property search, embedding the query when the mode needs it.
func (s *Service) Search(ctx context.Context, req *request.Property) (resp *result.Response[result.Property], err error) {
	start := time.Now()
	defer func() { metrics.ObserveSearch(entity, string(req.Mode()), start, err) }()

	var vector []float32
	if req.Mode().NeedsEmbedding() {
		emb, err := s.embed.Embed(ctx, req.Query())
		if err != nil {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		vector = emb.Embedding
	}

	resp, err = s.repo.Search(ctx, req, vector)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Property search",
		zap.String("mode", string(req.Mode())),
		zap.Int("results", len(resp.Results)),
		zap.Int64("total_hits", resp.TotalHits),
		zap.Int64("took_ms", resp.ExecutionTimeMS),
	)
	return resp, nil
}

// SearchText runs a full-text search. An empty query returns filter-only results.
func (s *Service) SearchText(
	ctx context.Context, query string, filters filter.Property, size int,
) (*result.Response[result.Property], error) {
	return s.searchMode(ctx, query, mode.Text, filters, size)
}

// SearchSemantic ranks listings by vector similarity to the query.
func (s *Service) SearchSemantic(
	ctx context.Context, query string, filters filter.Property, size int,
) (*result.Response[result.Property], error) {
	return s.searchMode(ctx, query, mode.Semantic, filters, size)
}

// SearchHybrid combines text and vector relevance.
func (s *Service) SearchHybrid(
	ctx context.Context, query string, filters filter.Property, size int,
) (*result.Response[result.Property], error) {
	return s.searchMode(ctx, query, mode.Hybrid, filters, size)
}

// SearchGeo returns listings within radiusKm of (lat, lon), nearest first, with distances attached.
func (s *Service) SearchGeo(
	ctx context.Context, lat, lon, radiusKm float64, filters filter.Property, size int,
) (*result.Response[result.Property], error) {
	filters.Geo = &filter.GeoRadius{Lat: lat, Lon: lon, RadiusKm: radiusKm}
	return s.searchMode(ctx, "", mode.Text, filters, size)
}

// SearchSimilar returns up to size listings closest to the stored embedding of referenceID.
// The reference listing itself is never returned.
func (s *Service) SearchSimilar(
	ctx context.Context, referenceID string, size int,
) (resp *result.Response[result.Property], err error) {
	start := time.Now()
	defer func() { metrics.ObserveSearch(entity, "similar", start, err) }()

	page, err := request.NewPage(size, 0)
	if err != nil {
		return nil, err
	}

	vector, err := s.repo.GetEmbedding(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	resp, err = s.repo.SearchSimilar(ctx, referenceID, vector, page.Size())
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Similar property search",
		zap.String("reference_id", referenceID),
		zap.Int("results", len(resp.Results)),
	)
	return resp, nil
}

func (s *Service) searchMode(
	ctx context.Context, query string, m mode.Mode, filters filter.Property, size int,
) (*result.Response[result.Property], error) {
	req, err := request.NewProperty(request.PropertyParams{
		Query:   query,
		Mode:    m,
		Filters: filters,
		Size:    size,
	})
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}
