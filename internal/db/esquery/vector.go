package esquery

import "fmt"

// Vector is the similarity-scoring core shared by the two vector query shapes:
// a top-level knn section and a script_score clause nested inside a bool query.
type Vector struct {
	Field         string
	Query         []float32
	K             int
	NumCandidates int
}

func (v Vector) validate() error {
	if v.Field == "" {
		return fmt.Errorf("%w: vector field is required", ErrInvalidQuery)
	}
	if len(v.Query) == 0 {
		return fmt.Errorf("%w: query vector is empty", ErrInvalidQuery)
	}
	return nil
}

// KNN renders the approximate nearest-neighbor section. Filters restrict the candidate set.
func (v Vector) KNN(filters ...Map) (Map, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if v.K < 1 {
		return nil, fmt.Errorf("%w: knn k must be >= 1", ErrInvalidQuery)
	}
	if v.NumCandidates < v.K {
		return nil, fmt.Errorf("%w: knn num_candidates (%d) must be >= k (%d)", ErrInvalidQuery, v.NumCandidates, v.K)
	}
	knn := Map{
		"field":          v.Field,
		"query_vector":   v.Query,
		"k":              v.K,
		"num_candidates": v.NumCandidates,
	}
	filters = appendNonNil(nil, filters)
	switch len(filters) {
	case 0:
	case 1:
		knn["filter"] = filters[0]
	default:
		knn["filter"] = Bool().Filter(filters...).Build()
	}
	return knn, nil
}

// ScriptScore renders exact cosine scoring over the documents matched by inner
// (match_all when nil). Scores are shifted by +1.0 so they are never negative.
func (v Vector) ScriptScore(inner Map) (Map, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	if inner == nil {
		inner = MatchAll()
	}
	return Map{"script_score": Map{
		"query": inner,
		"script": Map{
			"source": fmt.Sprintf("cosineSimilarity(params.query_vector, '%s') + 1.0", v.Field),
			"params": Map{"query_vector": v.Query},
		},
	}}, nil
}
