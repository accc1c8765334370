package estatesearch

import (
	"context"
	"time"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// PropertyService searches property listings.
type PropertyService struct {
	svc propertyUseCase
	obs *observer
}

// Search runs a property search.
func (s *PropertyService) Search(ctx context.Context, q PropertyQuery) (res *PropertyResults, err error) {
	start := time.Now()
	defer func() { s.obs.call("properties", "search", start, hits(res), err) }()

	req, err := request.NewProperty(request.PropertyParams{
		Query:   q.Query,
		Mode:    q.Mode,
		Filters: q.Filters,
		Sort:    q.Sort,
		Size:    q.Size,
		Offset:  q.Offset,
		Options: request.Options{
			IncludeHighlights:   q.IncludeHighlights,
			IncludeAggregations: q.IncludeAggregations,
		},
	})
	if err != nil {
		return nil, err
	}
	return s.svc.Search(ctx, &req)
}

// Near returns listings within radiusKm of a point, nearest first.
func (s *PropertyService) Near(
	ctx context.Context, lat, lon, radiusKm float64, filters PropertyFilters, size int,
) (res *PropertyResults, err error) {
	start := time.Now()
	defer func() { s.obs.call("properties", "near", start, hits(res), err) }()

	return s.svc.SearchGeo(ctx, lat, lon, radiusKm, filters, size)
}

// Similar returns listings closest to the stored embedding of a reference listing.
func (s *PropertyService) Similar(ctx context.Context, referenceID string, size int) (res *PropertyResults, err error) {
	start := time.Now()
	defer func() { s.obs.call("properties", "similar", start, hits(res), err) }()

	return s.svc.SearchSimilar(ctx, referenceID, size)
}

// WikipediaService searches Wikipedia articles, chunks and summaries.
type WikipediaService struct {
	svc wikipediaUseCase
	obs *observer
}

// Search runs a Wikipedia search.
func (s *WikipediaService) Search(ctx context.Context, q WikipediaQuery) (res *WikipediaResults, err error) {
	start := time.Now()
	defer func() { s.obs.call("wikipedia", "search", start, hits(res), err) }()

	req, err := request.NewWikipedia(request.WikipediaParams{
		Query:   q.Query,
		Mode:    q.Mode,
		Filters: q.Filters,
		Target:  q.Target,
		Size:    q.Size,
		Offset:  q.Offset,
		Options: request.Options{IncludeHighlights: q.IncludeHighlights},
	})
	if err != nil {
		return nil, err
	}
	return s.svc.Search(ctx, &req)
}

// ByCategory lists articles in any of the given categories.
func (s *WikipediaService) ByCategory(ctx context.Context, categories []string, size int) (res *WikipediaResults, err error) {
	start := time.Now()
	defer func() { s.obs.call("wikipedia", "by_category", start, hits(res), err) }()

	return s.svc.SearchByCategory(ctx, categories, size)
}

// NeighborhoodService searches neighborhood articles.
type NeighborhoodService struct {
	svc neighborhoodUseCase
	obs *observer
}

// Search runs a neighborhood search. With q.WithStats the overview also carries listing
// statistics and related articles; either is nil when its lookup failed.
func (s *NeighborhoodService) Search(ctx context.Context, q NeighborhoodQuery) (res *NeighborhoodOverview, err error) {
	start := time.Now()
	defer func() {
		n := -1
		if res != nil {
			n = len(res.Results)
		}
		s.obs.call("neighborhoods", "search", start, n, err)
	}()

	req, err := request.NewNeighborhood(request.NeighborhoodParams{
		Query:   q.Query,
		Mode:    q.Mode,
		Filters: NeighborhoodFilters{City: q.City, State: q.State},
		Size:    q.Size,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, err
	}

	if q.WithStats {
		return s.svc.SearchWithStats(ctx, &req)
	}
	resp, err := s.svc.Search(ctx, &req)
	if err != nil {
		return nil, err
	}
	return &result.NeighborhoodResponse{Response: *resp}, nil
}

// hits is the result count for metrics, -1 when the call failed.
func hits[T any](r *result.Response[T]) int {
	if r == nil {
		return -1
	}
	return len(r.Results)
}
