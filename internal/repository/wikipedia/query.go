package wikipedia

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
)

// retrieval is the mode-independent part of one search.
type retrieval struct {
	mode    mode.Mode
	query   string
	vector  []float32
	fields  []esquery.FieldBoost
	filters []esquery.Map
	size    int
	offset  int
}

// BuildQuery renders the _search body for a validated request. It performs no I/O.
func (r *Repo) BuildQuery(req *request.Wikipedia, vector []float32) (esquery.Map, error) {
	t := targets[req.Target()]
	sb, err := r.search(retrieval{
		mode:    req.Mode(),
		query:   req.Query(),
		vector:  vector,
		fields:  t.fields,
		filters: Filters(req.Filters()),
		size:    req.Size(),
		offset:  req.Offset(),
	})
	if err != nil {
		return nil, err
	}
	sb.ExcludeSource(t.excludes...).Explain(req.Options().Explain)
	if req.Options().IncludeHighlights && req.Query() != "" {
		sb.Highlight(esquery.Highlight(r.cfg.PreTag, r.cfg.PostTag, t.highlights...))
	}
	return build(sb)
}

// BuildNeighborhoodQuery renders a search over neighborhood-like articles.
func (r *Repo) BuildNeighborhoodQuery(req *request.Neighborhood, vector []float32) (esquery.Map, error) {
	t := targets[request.Full]
	categories, err := r.neighborhoodCategories()
	if err != nil {
		return nil, err
	}
	filters := append(NeighborhoodFilters(req.Filters()), categories)
	sb, err := r.search(retrieval{
		mode:    req.Mode(),
		query:   req.Query(),
		vector:  vector,
		fields:  t.fields,
		filters: filters,
		size:    req.Size(),
		offset:  req.Offset(),
	})
	if err != nil {
		return nil, err
	}
	sb.ExcludeSource(t.excludes...).Explain(req.Options().Explain)
	if req.Options().IncludeHighlights && req.Query() != "" {
		sb.Highlight(esquery.Highlight(r.cfg.PreTag, r.cfg.PostTag, t.highlights...))
	}
	return build(sb)
}

func (r *Repo) search(q retrieval) (*esquery.SearchBuilder, error) {
	sb := esquery.NewSearch().Size(q.size).From(q.offset)

	switch q.mode {
	case mode.Text:
		b := esquery.Bool().Filter(q.filters...)
		if q.query != "" {
			mm, err := esquery.MultiMatch(q.query, q.fields, r.cfg.Fuzziness)
			if err != nil {
				return nil, invalid(err)
			}
			b.Must(mm)
		}
		sb.Query(b.Build())

	case mode.Semantic:
		k := q.offset + q.size
		knn, err := esquery.Vector{
			Field:         fieldEmbedding,
			Query:         q.vector,
			K:             k,
			NumCandidates: r.numCandidates(k),
		}.KNN(q.filters...)
		if err != nil {
			return nil, invalid(err)
		}
		sb.KNN(knn)

	case mode.Hybrid:
		mm, err := esquery.MultiMatch(q.query, q.fields, r.cfg.Fuzziness)
		if err != nil {
			return nil, invalid(err)
		}
		vec, err := esquery.Vector{Field: fieldEmbedding, Query: q.vector}.ScriptScore(nil)
		if err != nil {
			return nil, invalid(err)
		}
		hybrid, err := esquery.Hybrid(mm, vec, r.cfg.TextWeight, r.cfg.VectorWeight)
		if err != nil {
			return nil, invalid(err)
		}
		sb.Query(esquery.Bool().Must(hybrid).Filter(q.filters...).Build())

	default:
		return nil, domain.NewValidationError("search_type", "unknown mode %q", q.mode)
	}
	return sb, nil
}

// Filters maps every present Wikipedia filter to one non-scoring predicate.
func Filters(f filter.Wikipedia) []esquery.Map {
	var out []esquery.Map
	if len(f.Categories) > 0 {
		out = append(out, esquery.Terms("categories", f.Categories))
	}
	if f.City != "" {
		out = append(out, esquery.Term("city", f.City))
	}
	if f.State != "" {
		out = append(out, esquery.Term("state", f.State))
	}
	if q, ok := esquery.RangeOf[float64]("relevance_score", f.MinRelevance, nil); ok {
		out = append(out, q)
	}
	return out
}

// NeighborhoodFilters maps the neighborhood city/state filters.
func NeighborhoodFilters(f filter.Neighborhood) []esquery.Map {
	return Filters(filter.Wikipedia{City: f.City, State: f.State})
}

// neighborhoodCategories keeps articles whose categories name a neighborhood-like area,
// either as an exact category or as a word inside a longer category title.
func (r *Repo) neighborhoodCategories() (esquery.Map, error) {
	var names []string
	for _, c := range r.cfg.NeighborhoodCategories {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return nil, errors.New("neighborhood search: no categories configured")
	}
	b := esquery.Bool().Should(esquery.Terms("categories", names))
	for _, c := range names {
		b.Should(esquery.Match("categories", c))
	}
	return b.MinimumShouldMatch(1).Build(), nil
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

func build(sb *esquery.SearchBuilder) (esquery.Map, error) {
	body, err := sb.Build()
	if err != nil {
		return nil, invalid(err)
	}
	return body, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
