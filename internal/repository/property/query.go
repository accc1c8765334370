package property

import (
	"fmt"

	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
)

func ptr(v float64) *float64 { return &v }

// priceBands are the fixed price_ranges buckets.
var priceBands = []esquery.RangeBucket{
	{Key: "under_200k", To: ptr(200_000)},
	{Key: "200k_to_500k", From: ptr(200_000), To: ptr(500_000)},
	{Key: "500k_to_1m", From: ptr(500_000), To: ptr(1_000_000)},
	{Key: "over_1m", From: ptr(1_000_000)},
}

// BuildQuery renders the _search body for a validated request. It performs no I/O.
// vector is required for semantic and hybrid modes and ignored for text.
func (r *Repo) BuildQuery(req *request.Property, vector []float32) (esquery.Map, error) {
	filters, err := Filters(req.Filters())
	if err != nil {
		return nil, err
	}

	sb := esquery.NewSearch().
		Size(req.Size()).
		From(req.Offset()).
		ExcludeSource(FieldEmbedding).
		Explain(req.Options().Explain)

	switch req.Mode() {
	case mode.Text:
		q := esquery.Bool().Filter(filters...)
		if req.Query() != "" {
			mm, err := esquery.MultiMatch(req.Query(), textFields, r.cfg.Fuzziness)
			if err != nil {
				return nil, invalid(err)
			}
			q.Must(mm)
		}
		sb.Query(q.Build())

	case mode.Semantic:
		k := req.Offset() + req.Size()
		knn, err := esquery.Vector{
			Field:         FieldEmbedding,
			Query:         vector,
			K:             k,
			NumCandidates: r.numCandidates(k),
		}.KNN(filters...)
		if err != nil {
			return nil, invalid(err)
		}
		sb.KNN(knn)

	case mode.Hybrid:
		mm, err := esquery.MultiMatch(req.Query(), textFields, r.cfg.Fuzziness)
		if err != nil {
			return nil, invalid(err)
		}
		vec, err := esquery.Vector{Field: FieldEmbedding, Query: vector}.ScriptScore(nil)
		if err != nil {
			return nil, invalid(err)
		}
		hybrid, err := esquery.Hybrid(mm, vec, r.cfg.TextWeight, r.cfg.VectorWeight)
		if err != nil {
			return nil, invalid(err)
		}
		sb.Query(esquery.Bool().Must(hybrid).Filter(filters...).Build())

	default:
		return nil, domain.NewValidationError("search_type", "unknown mode %q", req.Mode())
	}

	if req.Options().IncludeHighlights && req.Query() != "" {
		sb.Highlight(esquery.Highlight(r.cfg.PreTag, r.cfg.PostTag, highlightFields...))
	}
	if req.Options().IncludeAggregations {
		addAggregations(sb)
	}
	if s := sortClause(req); s != nil {
		sb.Sort(s)
	}

	body, err := sb.Build()
	if err != nil {
		return nil, invalid(err)
	}
	return body, nil
}

// Filters maps every present filter to one non-scoring predicate.
func Filters(f filter.Property) ([]esquery.Map, error) {
	var out []esquery.Map
	add := func(q esquery.Map, ok bool) {
		if ok {
			out = append(out, q)
		}
	}
	add(esquery.RangeOf("price", f.MinPrice, f.MaxPrice))
	add(esquery.RangeOf("bedrooms", f.MinBedrooms, f.MaxBedrooms))
	add(esquery.RangeOf("bathrooms", f.MinBathrooms, f.MaxBathrooms))
	add(esquery.RangeOf("square_feet", f.MinSquareFeet, f.MaxSquareFeet))
	if len(f.PropertyTypes) > 0 {
		out = append(out, esquery.Terms("property_type", f.PropertyTypes))
	}
	if len(f.Features) > 0 {
		out = append(out, esquery.Terms("features", f.Features))
	}
	if f.City != "" {
		out = append(out, esquery.Term(FieldCity, f.City))
	}
	if f.State != "" {
		out = append(out, esquery.Term(FieldState, f.State))
	}
	if f.ZipCode != "" {
		out = append(out, esquery.Term(FieldZip, f.ZipCode))
	}
	if f.Geo != nil {
		gd, err := esquery.GeoDistance(FieldLocation, f.Geo.Center(), f.Geo.RadiusKm)
		if err != nil {
			return nil, invalid(err)
		}
		out = append(out, gd)
	}
	return out, nil
}

func addAggregations(sb *esquery.SearchBuilder) {
	sb.Agg("property_types", esquery.TermsAgg("property_type", 10)).
		Agg("price_ranges", esquery.RangeAgg("price", priceBands...)).
		Agg("bedrooms", esquery.TermsAgg("bedrooms", 10)).
		Agg("cities", esquery.TermsAgg(FieldCity, 20)).
		Agg("avg_price", esquery.AvgAgg("price")).
		Agg("avg_square_feet", esquery.AvgAgg("square_feet"))
}

// sortClause orders by distance when a geo filter is present, otherwise by the requested key.
// Relevance ordering emits no sort.
func sortClause(req *request.Property) esquery.Map {
	if g := req.Filters().Geo; g != nil {
		return esquery.GeoDistanceSort(FieldLocation, g.Center(), "km")
	}
	field, ok := sortFields[req.Sort().By]
	if !ok {
		return nil
	}
	return esquery.SortBy(field, string(req.Sort().Order))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
