package esquery

import (
	"fmt"

	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

// HighlightField configures fragments for one highlighted field.
// Fragments 0 returns the whole field as a single fragment.
type HighlightField struct {
	Name         string
	FragmentSize int
	Fragments    int
}

// Highlight builds a highlight section with the given tags.
func Highlight(preTag, postTag string, fields ...HighlightField) Map {
	fs := make(Map, len(fields))
	for _, f := range fields {
		opts := Map{"number_of_fragments": f.Fragments}
		if f.FragmentSize > 0 {
			opts["fragment_size"] = f.FragmentSize
		}
		fs[f.Name] = opts
	}
	return Map{
		"pre_tags":  []string{preTag},
		"post_tags": []string{postTag},
		"fields":    fs,
	}
}

// SortBy orders by a document field.
func SortBy(field, order string) Map {
	return Map{field: Map{"order": order}}
}

// GeoDistanceSort orders by ascending arc distance from center; the sort value is in unit.
func GeoDistanceSort(field string, center geo.Point, unit string) Map {
	return Map{"_geo_distance": Map{
		field:           Map{"lat": center.Lat, "lon": center.Lon},
		"order":         "asc",
		"unit":          unit,
		"distance_type": "arc",
	}}
}

// TermsAgg counts documents per distinct value.
func TermsAgg(field string, size int) Map {
	return Map{"terms": Map{"field": field, "size": size}}
}

// RangeBucket is one band of a range aggregation. Nil bounds are open.
type RangeBucket struct {
	Key  string
	From *float64
	To   *float64
}

// RangeAgg counts documents per numeric band.
func RangeAgg(field string, buckets ...RangeBucket) Map {
	ranges := make([]Map, len(buckets))
	for i, b := range buckets {
		r := Map{"key": b.Key}
		if b.From != nil {
			r["from"] = *b.From
		}
		if b.To != nil {
			r["to"] = *b.To
		}
		ranges[i] = r
	}
	return Map{"range": Map{"field": field, "ranges": ranges}}
}

// AvgAgg averages a numeric field.
func AvgAgg(field string) Map {
	return Map{"avg": Map{"field": field}}
}

// SearchBuilder is a fluent builder for a _search request body.
type SearchBuilder struct {
	query     Map
	knn       Map
	size      int
	from      int
	highlight Map
	sort      []Map
	aggs      Map
	excludes  []string
	includes  []string
	explain   bool
}

// NewSearch starts a search body with size 10.
func NewSearch() *SearchBuilder {
	return &SearchBuilder{size: 10}
}

// Query sets the query section.
func (b *SearchBuilder) Query(q Map) *SearchBuilder {
	b.query = q
	return b
}

// KNN sets the top-level approximate kNN section.
func (b *SearchBuilder) KNN(knn Map) *SearchBuilder {
	b.knn = knn
	return b
}

// Size sets the number of hits.
func (b *SearchBuilder) Size(n int) *SearchBuilder {
	b.size = n
	return b
}

// From sets the pagination offset.
func (b *SearchBuilder) From(n int) *SearchBuilder {
	b.from = n
	return b
}

// Highlight sets the highlight section.
func (b *SearchBuilder) Highlight(h Map) *SearchBuilder {
	b.highlight = h
	return b
}

// Sort appends sort clauses.
func (b *SearchBuilder) Sort(s ...Map) *SearchBuilder {
	b.sort = append(b.sort, s...)
	return b
}

// Agg adds a named aggregation.
func (b *SearchBuilder) Agg(name string, agg Map) *SearchBuilder {
	if b.aggs == nil {
		b.aggs = Map{}
	}
	b.aggs[name] = agg
	return b
}

// ExcludeSource drops fields (typically embeddings) from returned _source.
func (b *SearchBuilder) ExcludeSource(fields ...string) *SearchBuilder {
	b.excludes = append(b.excludes, fields...)
	return b
}

// IncludeSource restricts returned _source to fields.
func (b *SearchBuilder) IncludeSource(fields ...string) *SearchBuilder {
	b.includes = append(b.includes, fields...)
	return b
}

// Explain asks the backend for per-hit score explanations.
func (b *SearchBuilder) Explain(on bool) *SearchBuilder {
	b.explain = on
	return b
}

// Build validates and returns the request body. Without query or knn it matches everything.
func (b *SearchBuilder) Build() (Map, error) {
	if b.size < 0 {
		return nil, fmt.Errorf("%w: size must be >= 0", ErrInvalidQuery)
	}
	if b.from < 0 {
		return nil, fmt.Errorf("%w: from must be >= 0", ErrInvalidQuery)
	}

	body := Map{
		"size":             b.size,
		"track_total_hits": true,
	}
	if b.from > 0 {
		body["from"] = b.from
	}
	switch {
	case b.query != nil:
		body["query"] = b.query
	case b.knn == nil:
		body["query"] = MatchAll()
	}
	if b.knn != nil {
		body["knn"] = b.knn
	}
	if b.highlight != nil {
		body["highlight"] = b.highlight
	}
	if len(b.sort) > 0 {
		body["sort"] = b.sort
	}
	if len(b.aggs) > 0 {
		body["aggs"] = b.aggs
	}
	if len(b.excludes) > 0 || len(b.includes) > 0 {
		src := Map{}
		if len(b.includes) > 0 {
			src["includes"] = b.includes
		}
		if len(b.excludes) > 0 {
			src["excludes"] = b.excludes
		}
		body["_source"] = src
	}
	if b.explain {
		body["explain"] = true
	}
	return body, nil
}
