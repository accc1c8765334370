// Package wikipedia searches the Wikipedia corpora: full articles, their chunks and their
// summaries, plus the neighborhood view over articles tagged as neighborhoods.
package wikipedia

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/logger"
	"github.com/kailas-cloud/estatesearch/internal/repository/esresult"
)

// store is the consumer interface for Wikipedia operations (ISP).
type store interface {
	Search(ctx context.Context, index string, body map[string]any) (*elastic.Response, error)
	MultiSearch(ctx context.Context, queries []elastic.MultiQuery) ([]elastic.MultiResult, error)
}

// Config holds index names and query-shaping settings.
type Config struct {
	ArticlesIndex          string
	ChunksIndex            string
	SummariesIndex         string
	Fuzziness              string
	TextWeight             float64
	VectorWeight           float64
	NumCandidatesFactor    int
	PreTag                 string
	PostTag                string
	NeighborhoodCategories []string
}

// Repo implements usecase/wikipedia.Repository and usecase/neighborhood.Repository.
type Repo struct {
	store store
	cfg   Config
}

// DefaultNeighborhoodCategories is used when Config.NeighborhoodCategories is empty.
var DefaultNeighborhoodCategories = []string{"neighborhoods", "districts", "communities"}

// New creates a Wikipedia repository.
func New(s store, cfg Config) *Repo {
	if cfg.NumCandidatesFactor < 1 {
		cfg.NumCandidatesFactor = 10
	}
	if len(cfg.NeighborhoodCategories) == 0 {
		cfg.NeighborhoodCategories = DefaultNeighborhoodCategories
	}
	return &Repo{store: s, cfg: cfg}
}

// Search runs a validated Wikipedia search against the requested target.
func (r *Repo) Search(ctx context.Context, req *request.Wikipedia, vector []float32) (*result.Response[result.Wikipedia], error) {
	body, err := r.BuildQuery(req, vector)
	if err != nil {
		return nil, err
	}

	index := r.Index(req.Target())
	resp, err := r.store.Search(ctx, index, body)
	if err != nil {
		return nil, fmt.Errorf("search wikipedia %s: %w", req.Target(), err)
	}

	conv := articleConverter(targets[req.Target()].entity)
	if req.Target() == request.Chunks {
		conv = chunkConverter(ctx)
	}
	items := esresult.Limit(esresult.Items(resp.Hits.Hits, req.Options().Explain, conv), req.Size())
	return esresult.NewResponse(resp, items, req.Filters().Applied()), nil
}

// SearchNeighborhoods searches articles tagged with neighborhood-like categories.
func (r *Repo) SearchNeighborhoods(
	ctx context.Context, req *request.Neighborhood, vector []float32,
) (*result.Response[result.Neighborhood], error) {
	body, err := r.BuildNeighborhoodQuery(req, vector)
	if err != nil {
		return nil, err
	}

	resp, err := r.store.Search(ctx, r.cfg.ArticlesIndex, body)
	if err != nil {
		return nil, fmt.Errorf("search neighborhoods: %w", err)
	}

	items := esresult.Limit(esresult.Items(resp.Hits.Hits, req.Options().Explain, toNeighborhood), req.Size())
	return esresult.NewResponse(resp, items, req.Filters().Applied()), nil
}

// RelatedArticles finds up to size articles about each neighborhood in one multi-search round trip.
// Neighborhoods whose sub-query failed are logged and left out of the map.
func (r *Repo) RelatedArticles(
	ctx context.Context, neighborhoods []result.Neighborhood, size int,
) (map[string][]result.Wikipedia, error) {
	if len(neighborhoods) == 0 || size < 1 {
		return map[string][]result.Wikipedia{}, nil
	}

	t := targets[request.Full]
	queries := make([]elastic.MultiQuery, 0, len(neighborhoods))
	for _, n := range neighborhoods {
		body, err := r.relatedQuery(n, t, size)
		if err != nil {
			return nil, err
		}
		queries = append(queries, elastic.MultiQuery{Index: r.cfg.ArticlesIndex, Body: body})
	}

	results, err := r.store.MultiSearch(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("related articles: %w", err)
	}

	log := logger.FromContext(ctx)
	conv := articleConverter(t.entity)
	out := make(map[string][]result.Wikipedia, len(neighborhoods))
	for i, res := range results {
		if i >= len(neighborhoods) {
			break
		}
		n := neighborhoods[i]
		if res.Err != nil {
			log.Warn("related articles lookup failed", zap.String("neighborhood", n.ID), zap.Error(res.Err))
			continue
		}
		items := esresult.Limit(esresult.Items(res.Response.Hits.Hits, false, conv), size)
		docs := make([]result.Wikipedia, len(items))
		for j, it := range items {
			docs[j] = it.Document
		}
		out[n.ID] = docs
	}
	return out, nil
}

func (r *Repo) relatedQuery(n result.Neighborhood, t target, size int) (esquery.Map, error) {
	b := esquery.Bool().Filter(Filters(filterFor(n))...)
	if n.Name != "" {
		mm, err := esquery.MultiMatch(n.Name, t.fields, r.cfg.Fuzziness)
		if err != nil {
			return nil, invalid(err)
		}
		b.Must(mm)
	}
	if id := n.DocID; id != "" {
		b.MustNot(esquery.IDs(id))
	} else if n.ID != "" {
		b.MustNot(esquery.Term("page_id", n.ID))
	}
	return build(esquery.NewSearch().Query(b.Build()).Size(size).ExcludeSource(t.excludes...))
}
