// Package esquery builds Elasticsearch query DSL bodies as plain maps.
// Builders are pure: no I/O, and a malformed clause is an error rather than a silent omission.
package esquery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

// ErrInvalidQuery signals a clause that cannot be built from the given inputs.
var ErrInvalidQuery = errors.New("esquery: invalid query")

// Map is a JSON object of the query DSL.
type Map = map[string]any

// FieldBoost is a searchable field with its relevance multiplier.
type FieldBoost struct {
	Field string
	Boost float64
}

// String renders the field in "name^boost" form. Boost 0 or 1 renders the bare name.
func (f FieldBoost) String() string {
	if f.Boost == 0 || f.Boost == 1 {
		return f.Field
	}
	return fmt.Sprintf("%s^%g", f.Field, f.Boost)
}

// MultiMatch builds a best_fields multi_match over boosted fields.
// An empty fuzziness disables fuzzy matching.
func MultiMatch(query string, fields []FieldBoost, fuzziness string) (Map, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: multi_match requires query text", ErrInvalidQuery)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: multi_match requires at least one field", ErrInvalidQuery)
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	mm := Map{
		"query":  query,
		"fields": names,
		"type":   "best_fields",
	}
	if fuzziness != "" {
		mm["fuzziness"] = fuzziness
	}
	return Map{"multi_match": mm}, nil
}

// MatchAll matches every document.
func MatchAll() Map {
	return Map{"match_all": Map{}}
}

// Match builds a full-text match on one field.
func Match(field, text string) Map {
	return Map{"match": Map{field: text}}
}

// Term builds an exact-value predicate.
func Term(field string, value any) Map {
	return Map{"term": Map{field: value}}
}

// Terms builds a match-any-of predicate for multi-value filters.
func Terms[T any](field string, values []T) Map {
	return Map{"terms": Map{field: values}}
}

// IDs matches documents by _id.
func IDs(ids ...string) Map {
	return Map{"ids": Map{"values": ids}}
}

type number interface {
	~int | ~int64 | ~float64
}

// RangeOf builds a range predicate from optional bounds (gte/lte).
// The boolean is false when both bounds are nil and no clause should be added.
func RangeOf[T number](field string, gte, lte *T) (Map, bool) {
	if gte == nil && lte == nil {
		return nil, false
	}
	bounds := Map{}
	if gte != nil {
		bounds["gte"] = *gte
	}
	if lte != nil {
		bounds["lte"] = *lte
	}
	return Map{"range": Map{field: bounds}}, true
}

// GeoDistance keeps documents whose geo_point field lies within radiusKm of center.
func GeoDistance(field string, center geo.Point, radiusKm float64) (Map, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("%w: geo_distance center %s out of range", ErrInvalidQuery, center)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: geo_distance radius must be > 0", ErrInvalidQuery)
	}
	return Map{"geo_distance": Map{
		"distance": fmt.Sprintf("%gkm", radiusKm),
		field:      Map{"lat": center.Lat, "lon": center.Lon},
	}}, nil
}

// ConstantScore wraps q so every match scores exactly boost.
func ConstantScore(q Map, boost float64) Map {
	return Map{"constant_score": Map{"filter": q, "boost": boost}}
}

// Hybrid combines a text clause and a vector clause as a boost-weighted OR:
// each branch is a constant_score with the branch weight, so a document matching
// both scores textWeight+vectorWeight and one matching a single branch scores that weight.
func Hybrid(text, vector Map, textWeight, vectorWeight float64) (Map, error) {
	if text == nil || vector == nil {
		return nil, fmt.Errorf("%w: hybrid requires both text and vector clauses", ErrInvalidQuery)
	}
	if textWeight < 0 || textWeight > 1 || vectorWeight < 0 || vectorWeight > 1 {
		return nil, fmt.Errorf("%w: hybrid weights must be within [0,1]", ErrInvalidQuery)
	}
	return Bool().
		Should(ConstantScore(text, textWeight), ConstantScore(vector, vectorWeight)).
		MinimumShouldMatch(1).
		Build(), nil
}
