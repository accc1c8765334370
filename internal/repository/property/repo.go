// Package property builds and runs property listing searches against the properties index.
package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/repository/esresult"
)

// Document fields of the properties index.
const (
	FieldEmbedding = "embedding"
	FieldLocation  = "address.location"
	FieldCity      = "address.city"
	FieldState     = "address.state"
	FieldZip       = "address.zip_code"
)

// textFields are the boosted fields of property full-text search.
var textFields = []esquery.FieldBoost{
	{Field: "description", Boost: 3},
	{Field: "features", Boost: 1.5},
	{Field: "amenities", Boost: 1.5},
	{Field: FieldCity},
	{Field: "property_type"},
}

var highlightFields = []esquery.HighlightField{
	{Name: "description", FragmentSize: 150, Fragments: 3},
	{Name: "features", Fragments: 0},
	{Name: "amenities", Fragments: 0},
}

var sortFields = map[request.SortBy]string{
	request.ByPrice:    "price",
	request.ByDate:     "listing_date",
	request.ByBedrooms: "bedrooms",
}

// store is the consumer interface for property operations (ISP).
type store interface {
	Search(ctx context.Context, index string, body map[string]any) (*elastic.Response, error)
	Get(ctx context.Context, index, id string, includes ...string) (*elastic.Document, error)
}

// Config holds the query-shaping settings of property search.
type Config struct {
	Index               string
	Fuzziness           string
	TextWeight          float64
	VectorWeight        float64
	NumCandidatesFactor int
	PreTag              string
	PostTag             string
}

// Repo implements usecase/property.Repository.
type Repo struct {
	store store
	cfg   Config
}

// New creates a property repository.
func New(s store, cfg Config) *Repo {
	if cfg.NumCandidatesFactor < 1 {
		cfg.NumCandidatesFactor = 10
	}
	return &Repo{store: s, cfg: cfg}
}

// Search runs a validated property search. vector is required for semantic and hybrid modes.
func (r *Repo) Search(ctx context.Context, req *request.Property, vector []float32) (*result.Response[result.Property], error) {
	body, err := r.BuildQuery(req, vector)
	if err != nil {
		return nil, err
	}

	resp, err := r.store.Search(ctx, r.cfg.Index, body)
	if err != nil {
		return nil, fmt.Errorf("search properties: %w", err)
	}

	items := esresult.Items(resp.Hits.Hits, req.Options().Explain, toProperty)
	if g := req.Filters().Geo; g != nil {
		attachDistances(items, resp.Hits.Hits, g.Center())
	}
	items = esresult.Limit(items, req.Size())
	return esresult.NewResponse(resp, items, req.Filters().Applied()), nil
}

// GetEmbedding returns the stored embedding of a listing.
func (r *Repo) GetEmbedding(ctx context.Context, id string) ([]float32, error) {
	doc, err := r.store.Get(ctx, r.cfg.Index, id, FieldEmbedding)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("property %q: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get property %q: %w", id, err)
	}
	vec := esresult.ParseSource(doc.Source).Vector(FieldEmbedding)
	if len(vec) == 0 {
		return nil, fmt.Errorf("property %q has no stored %s: %w", id, FieldEmbedding, domain.ErrMissingEmbedding)
	}
	return vec, nil
}

// SearchSimilar returns the nearest listings to vector, never including excludeID.
func (r *Repo) SearchSimilar(
	ctx context.Context, excludeID string, vector []float32, size int,
) (*result.Response[result.Property], error) {
	k := size + 1
	knn, err := esquery.Vector{
		Field:         FieldEmbedding,
		Query:         vector,
		K:             k,
		NumCandidates: r.numCandidates(k),
	}.KNN(esquery.Bool().MustNot(esquery.IDs(excludeID)).Build())
	if err != nil {
		return nil, invalid(err)
	}

	body, err := esquery.NewSearch().KNN(knn).Size(k).ExcludeSource(FieldEmbedding).Build()
	if err != nil {
		return nil, invalid(err)
	}

	resp, err := r.store.Search(ctx, r.cfg.Index, body)
	if err != nil {
		return nil, fmt.Errorf("search similar properties: %w", err)
	}

	items := esresult.Items(resp.Hits.Hits, false, func(h *elastic.Hit, src esresult.Source) (result.Property, bool) {
		if h.ID == excludeID {
			return result.Property{}, false
		}
		return toProperty(h, src)
	})
	items = esresult.Limit(items, size)
	return esresult.NewResponse(resp, items, map[string]any{"similar_to": excludeID}), nil
}

// Stats aggregates the listings of a city (and state, when given).
func (r *Repo) Stats(ctx context.Context, city, state string) (*result.Stats, error) {
	b := esquery.Bool()
	if city != "" {
		b.Filter(esquery.Term(FieldCity, city))
	}
	if state != "" {
		b.Filter(esquery.Term(FieldState, state))
	}
	body, err := esquery.NewSearch().
		Query(b.Build()).
		Size(0).
		Agg("avg_price", esquery.AvgAgg("price")).
		Agg("avg_bedrooms", esquery.AvgAgg("bedrooms")).
		Agg("avg_square_feet", esquery.AvgAgg("square_feet")).
		Agg("property_types", esquery.TermsAgg("property_type", 10)).
		Build()
	if err != nil {
		return nil, invalid(err)
	}

	resp, err := r.store.Search(ctx, r.cfg.Index, body)
	if err != nil {
		return nil, fmt.Errorf("property stats: %w", err)
	}

	aggs := esresult.ParseAggregations(resp.Aggregations)
	return &result.Stats{
		PropertyCount: resp.Hits.Total.Value,
		AvgPrice:      esresult.Metric(aggs, "avg_price"),
		AvgBedrooms:   esresult.Metric(aggs, "avg_bedrooms"),
		AvgSquareFeet: esresult.Metric(aggs, "avg_square_feet"),
		PropertyTypes: esresult.Counts(aggs, "property_types"),
	}, nil
}

func (r *Repo) numCandidates(k int) int {
	n := k * r.cfg.NumCandidatesFactor
	if n < 100 {
		n = 100
	}
	if n > request.MaxWindow {
		n = request.MaxWindow
	}
	return n
}
