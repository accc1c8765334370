// Package wikipedia runs searches over the Wikipedia corpora.
package wikipedia

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/logger"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
)

const entity = "wikipedia"

// Service handles Wikipedia searches.
type Service struct {
	repo  Repository
	embed Embedder
}

// New creates a Wikipedia search service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{repo: repo, embed: embed}
}

// Search executes a validated Wikipedia search against its target.
func (s *Service) Search(ctx context.Context, req *request.Wikipedia) (resp *result.Response[result.Wikipedia], err error) {
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

	logger.FromContext(ctx).Debug("Wikipedia search",
		zap.String("mode", string(req.Mode())),
		zap.String("target", string(req.Target())),
		zap.Int("results", len(resp.Results)),
		zap.Int64("total_hits", resp.TotalHits),
		zap.Int64("took_ms", resp.ExecutionTimeMS),
	)
	return resp, nil
}

// SearchText runs a full-text search against target.
func (s *Service) SearchText(
	ctx context.Context, query string, target request.Target, size int,
) (*result.Response[result.Wikipedia], error) {
	return s.search(ctx, request.WikipediaParams{Query: query, Mode: mode.Text, Target: target, Size: size})
}

// SearchChunks runs a full-text search over article chunks.
func (s *Service) SearchChunks(ctx context.Context, query string, size int) (*result.Response[result.Wikipedia], error) {
	return s.SearchText(ctx, query, request.Chunks, size)
}

// SearchSummaries runs a full-text search over article summaries.
func (s *Service) SearchSummaries(ctx context.Context, query string, size int) (*result.Response[result.Wikipedia], error) {
	return s.SearchText(ctx, query, request.Summaries, size)
}

// SearchByCategory lists articles in any of the given categories.
func (s *Service) SearchByCategory(
	ctx context.Context, categories []string, size int,
) (*result.Response[result.Wikipedia], error) {
	if len(categories) == 0 {
		return nil, domain.NewValidationError("categories", "at least one category is required")
	}
	return s.search(ctx, request.WikipediaParams{
		Mode:    mode.Text,
		Filters: filter.Wikipedia{Categories: categories},
		Size:    size,
	})
}

// SearchByLocation lists articles located in city and state. Either may be empty.
func (s *Service) SearchByLocation(
	ctx context.Context, city, state string, size int,
) (*result.Response[result.Wikipedia], error) {
	return s.search(ctx, request.WikipediaParams{
		Mode:    mode.Text,
		Filters: filter.Wikipedia{City: city, State: state},
		Size:    size,
	})
}

func (s *Service) search(ctx context.Context, p request.WikipediaParams) (*result.Response[result.Wikipedia], error) {
	req, err := request.NewWikipedia(p)
	if err != nil {
		return nil, err
	}
	return s.Search(ctx, &req)
}
