package esquery

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestMultiMatch(t *testing.T) {
	q, err := MultiMatch("modern home", []FieldBoost{
		{Field: "description", Boost: 3},
		{Field: "features", Boost: 1.5},
		{Field: "address.city", Boost: 1},
	}, "AUTO")
	require.NoError(t, err)

	require.JSONEq(t, `{"multi_match":{
		"query":"modern home",
		"fields":["description^3","features^1.5","address.city"],
		"type":"best_fields",
		"fuzziness":"AUTO"}}`, toJSON(t, q))
}

func TestMultiMatch_NoFuzziness(t *testing.T) {
	q, err := MultiMatch("x", []FieldBoost{{Field: "title"}}, "")
	require.NoError(t, err)
	require.NotContains(t, q["multi_match"], "fuzziness")
}

func TestMultiMatch_Invalid(t *testing.T) {
	_, err := MultiMatch("  ", []FieldBoost{{Field: "title"}}, "")
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = MultiMatch("x", nil, "")
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRangeOf(t *testing.T) {
	lo, hi := 100000.0, 500000.0

	q, ok := RangeOf("price", &lo, &hi)
	require.True(t, ok)
	require.JSONEq(t, `{"range":{"price":{"gte":100000,"lte":500000}}}`, toJSON(t, q))

	q, ok = RangeOf[int]("bedrooms", nil, nil)
	require.False(t, ok)
	require.Nil(t, q)

	beds := 2
	q, ok = RangeOf("bedrooms", &beds, nil)
	require.True(t, ok)
	require.JSONEq(t, `{"range":{"bedrooms":{"gte":2}}}`, toJSON(t, q))
}

func TestGeoDistance(t *testing.T) {
	q, err := GeoDistance("address.location", geo.Point{Lat: 37.77, Lon: -122.42}, 5)
	require.NoError(t, err)
	require.JSONEq(t, `{"geo_distance":{"distance":"5km","address.location":{"lat":37.77,"lon":-122.42}}}`, toJSON(t, q))

	_, err = GeoDistance("address.location", geo.Point{Lat: 100}, 5)
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = GeoDistance("address.location", geo.Point{}, 0)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestBool_Build(t *testing.T) {
	require.Equal(t, MatchAll(), Bool().Build())

	q := Bool().
		Must(Match("title", "park")).
		Filter(Term("state", "Utah"), nil).
		MustNot(IDs("42")).
		Build()
	require.JSONEq(t, `{"bool":{
		"must":[{"match":{"title":"park"}}],
		"filter":[{"term":{"state":"Utah"}}],
		"must_not":[{"ids":{"values":["42"]}}]}}`, toJSON(t, q))
}

func TestHybrid_TwoConstantScoreBranches(t *testing.T) {
	text := Match("description", "pool")
	vec, err := Vector{Field: "embedding", Query: []float32{0.1, 0.2}}.ScriptScore(nil)
	require.NoError(t, err)

	q, err := Hybrid(text, vec, 0.6, 0.4)
	require.NoError(t, err)

	should := q["bool"].(Map)["should"].([]Map)
	require.Len(t, should, 2)
	require.Equal(t, 0.6, should[0]["constant_score"].(Map)["boost"])
	require.Equal(t, 0.4, should[1]["constant_score"].(Map)["boost"])
	require.Equal(t, text, should[0]["constant_score"].(Map)["filter"])
	require.Equal(t, 1, q["bool"].(Map)["minimum_should_match"])
}

func TestHybrid_Invalid(t *testing.T) {
	_, err := Hybrid(nil, MatchAll(), 0.5, 0.5)
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = Hybrid(MatchAll(), MatchAll(), 1.5, 0.5)
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestVector_KNN(t *testing.T) {
	v := Vector{Field: "embedding", Query: []float32{0.5, 0.5}, K: 10, NumCandidates: 100}

	knn, err := v.KNN(Bool().MustNot(IDs("ref-1")).Build())
	require.NoError(t, err)
	require.Equal(t, "embedding", knn["field"])
	require.Equal(t, 10, knn["k"])
	require.Equal(t, 100, knn["num_candidates"])
	require.JSONEq(t, `{"bool":{"must_not":[{"ids":{"values":["ref-1"]}}]}}`, toJSON(t, knn["filter"]))

	knn, err = v.KNN()
	require.NoError(t, err)
	require.NotContains(t, knn, "filter")

	knn, err = v.KNN(Term("a", 1), Term("b", 2))
	require.NoError(t, err)
	require.Len(t, knn["filter"].(Map)["bool"].(Map)["filter"], 2)
}

func TestVector_KNN_Invalid(t *testing.T) {
	tests := []Vector{
		{Field: "embedding", K: 10, NumCandidates: 100},
		{Query: []float32{1}, K: 10, NumCandidates: 100},
		{Field: "embedding", Query: []float32{1}, K: 0, NumCandidates: 100},
		{Field: "embedding", Query: []float32{1}, K: 10, NumCandidates: 5},
	}
	for _, v := range tests {
		_, err := v.KNN()
		require.ErrorIs(t, err, ErrInvalidQuery)
	}
}

func TestVector_ScriptScore_NonNegativeOffset(t *testing.T) {
	q, err := Vector{Field: "embedding", Query: []float32{1, 0}}.ScriptScore(Term("state", "Utah"))
	require.NoError(t, err)

	ss := q["script_score"].(Map)
	require.Equal(t, Term("state", "Utah"), ss["query"])
	script := ss["script"].(Map)
	require.Equal(t, "cosineSimilarity(params.query_vector, 'embedding') + 1.0", script["source"])
	require.Equal(t, []float32{1, 0}, script["params"].(Map)["query_vector"])
}

func TestHighlight(t *testing.T) {
	h := Highlight("<em>", "</em>",
		HighlightField{Name: "title", Fragments: 0},
		HighlightField{Name: "content", FragmentSize: 200, Fragments: 3},
	)
	require.JSONEq(t, `{
		"pre_tags":["<em>"],"post_tags":["</em>"],
		"fields":{
			"title":{"number_of_fragments":0},
			"content":{"fragment_size":200,"number_of_fragments":3}}}`, toJSON(t, h))
}

func TestRangeAgg(t *testing.T) {
	to, from := 200000.0, 1000000.0
	agg := RangeAgg("price",
		RangeBucket{Key: "under_200k", To: &to},
		RangeBucket{Key: "over_1m", From: &from},
	)
	require.JSONEq(t, `{"range":{"field":"price","ranges":[
		{"key":"under_200k","to":200000},
		{"key":"over_1m","from":1000000}]}}`, toJSON(t, agg))
}

func TestSearchBuilder(t *testing.T) {
	body, err := NewSearch().
		Query(Match("title", "x")).
		Size(20).
		From(40).
		Sort(SortBy("price", "asc")).
		Agg("avg_price", AvgAgg("price")).
		ExcludeSource("embedding").
		Explain(true).
		Build()
	require.NoError(t, err)

	require.JSONEq(t, `{
		"query":{"match":{"title":"x"}},
		"size":20,"from":40,"track_total_hits":true,
		"sort":[{"price":{"order":"asc"}}],
		"aggs":{"avg_price":{"avg":{"field":"price"}}},
		"_source":{"excludes":["embedding"]},
		"explain":true}`, toJSON(t, body))
}

func TestSearchBuilder_Defaults(t *testing.T) {
	body, err := NewSearch().Build()
	require.NoError(t, err)
	require.Equal(t, MatchAll(), body["query"])
	require.Equal(t, 10, body["size"])
	require.NotContains(t, body, "from")

	knnOnly, err := NewSearch().KNN(Map{"field": "embedding"}).Build()
	require.NoError(t, err)
	require.NotContains(t, knnOnly, "query")

	_, err = NewSearch().Size(-1).Build()
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGeoDistanceSort(t *testing.T) {
	s := GeoDistanceSort("address.location", geo.Point{Lat: 1, Lon: 2}, "km")
	require.JSONEq(t, `{"_geo_distance":{
		"address.location":{"lat":1,"lon":2},
		"order":"asc","unit":"km","distance_type":"arc"}}`, toJSON(t, s))
}
