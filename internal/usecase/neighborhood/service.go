// Package neighborhood searches neighborhood articles and enriches them with property
// statistics and related Wikipedia articles.
package neighborhood

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

const entity = "neighborhood"

// Service handles neighborhood searches.
type Service struct {
	repo    Repository
	stats   StatsReader
	embed   Embedder
	related int
}

// New creates a neighborhood search service. related is the number of related articles
// fetched per neighborhood by SearchWithStats; zero disables the lookup.
func New(repo Repository, stats StatsReader, embed Embedder, related int) *Service {
	return &Service{repo: repo, stats: stats, embed: embed, related: related}
}

// Search executes a validated neighborhood search.
func (s *Service) Search(
	ctx context.Context, req *request.Neighborhood,
) (resp *result.Response[result.Neighborhood], err error) {
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

	resp, err = s.repo.SearchNeighborhoods(ctx, req, vector)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Neighborhood search",
		zap.String("mode", string(req.Mode())),
		zap.Int("results", len(resp.Results)),
		zap.Int64("total_hits", resp.TotalHits),
	)
	return resp, nil
}

// SearchByLocation lists neighborhoods of a city and state.
func (s *Service) SearchByLocation(
	ctx context.Context, city, state string, size int,
) (*result.Response[result.Neighborhood], error) {
	req, err := request.NewNeighborhood(request.NeighborhoodParams{
		Mode:    mode.Text,
		Filters: filter.Neighborhood{City: city, State: state},
		Size:    size,
	})
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}

// SearchWithStats runs Search, then aggregates the property listings of the top neighborhood's
// city and state. Enrichment failures are logged and leave Statistics or RelatedArticles nil;
// only the primary search can fail the call.
func (s *Service) SearchWithStats(
	ctx context.Context, req *request.Neighborhood,
) (*result.NeighborhoodResponse, error) {
	resp, err := s.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &result.NeighborhoodResponse{Response: *resp}
	log := logger.FromContext(ctx)

	if city, state, ok := statsArea(req, resp); ok {
		stats, err := s.stats.Stats(ctx, city, state)
		if err != nil {
			metrics.EnrichmentFailures.WithLabelValues("statistics").Inc()
			log.Warn("Neighborhood statistics unavailable",
				zap.String("city", city), zap.String("state", state), zap.Error(err))
		} else {
			out.Statistics = stats
		}
	}

	if s.related > 0 && len(resp.Results) > 0 {
		hoods := make([]result.Neighborhood, len(resp.Results))
		for i, it := range resp.Results {
			hoods[i] = it.Document
		}
		related, err := s.repo.RelatedArticles(ctx, hoods, s.related)
		if err != nil {
			metrics.EnrichmentFailures.WithLabelValues("related_articles").Inc()
			log.Warn("Related articles unavailable", zap.Error(err))
		} else {
			out.RelatedArticles = related
		}
	}

	return out, nil
}

// statsArea picks the city and state to aggregate: the top result's, else the request filters.
func statsArea(req *request.Neighborhood, resp *result.Response[result.Neighborhood]) (city, state string, ok bool) {
	if len(resp.Results) > 0 {
		top := resp.Results[0].Document
		if top.City != "" || top.State != "" {
			return top.City, top.State, true
		}
	}
	f := req.Filters()
	if f.City != "" || f.State != "" {
		return f.City, f.State, true
	}
	return "", "", false
}
