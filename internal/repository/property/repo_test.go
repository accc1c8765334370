package property

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
)

func mustRequest(t *testing.T, p request.PropertyParams) *request.Property {
	t.Helper()
	req, err := request.NewProperty(p)
	require.NoError(t, err)
	return &req
}

// --- BuildQuery ---

func TestBuildQuery_TextWithFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{
		Query: "modern home",
		Mode:  mode.Text,
		Filters: filter.Property{
			MinPrice:      f64(400000),
			MaxPrice:      f64(800000),
			PropertyTypes: []string{"condo"},
			City:          "San Francisco",
		},
		Size:   5,
		Offset: 10,
	})

	body, err := repo.BuildQuery(req, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, body["size"])
	assert.Equal(t, 10, body["from"])
	assert.Equal(t, true, body["track_total_hits"])
	assert.Nil(t, body["sort"])
	assert.Nil(t, body["aggs"])

	must := dig(t, body, "query", "bool", "must").([]esquery.Map)
	require.Len(t, must, 1)
	mm := dig(t, must[0], "multi_match")
	assert.Equal(t, esquery.Map{
		"query":     "modern home",
		"fields":    []string{"description^3", "features^1.5", "amenities^1.5", "address.city", "property_type"},
		"type":      "best_fields",
		"fuzziness": "AUTO",
	}, mm)

	filters := dig(t, body, "query", "bool", "filter").([]esquery.Map)
	assert.ElementsMatch(t, []esquery.Map{
		{"range": esquery.Map{"price": esquery.Map{"gte": 400000.0, "lte": 800000.0}}},
		{"terms": esquery.Map{"property_type": []string{"condo"}}},
		{"term": esquery.Map{"address.city": "San Francisco"}},
	}, filters)

	assert.Equal(t, esquery.Map{"excludes": []string{"embedding"}}, body["_source"])
}

func TestBuildQuery_TextWithoutQueryIsFilterOnly(t *testing.T) {
	repo, _ := newTestRepo(t)

	req := mustRequest(t, request.PropertyParams{Mode: mode.Text})
	body, err := repo.BuildQuery(req, nil)
	require.NoError(t, err)
	assert.Equal(t, esquery.MatchAll(), body["query"])

	req = mustRequest(t, request.PropertyParams{Mode: mode.Text, Filters: filter.Property{MinBedrooms: intp(2)}})
	body, err = repo.BuildQuery(req, nil)
	require.NoError(t, err)
	_, hasMust := dig(t, body, "query", "bool").(esquery.Map)["must"]
	assert.False(t, hasMust)
	filters := dig(t, body, "query", "bool", "filter").([]esquery.Map)
	assert.Equal(t, []esquery.Map{{"range": esquery.Map{"bedrooms": esquery.Map{"gte": 2}}}}, filters)
}

func TestBuildQuery_Semantic(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{
		Query:   "quiet cabin",
		Mode:    mode.Semantic,
		Filters: filter.Property{State: "UT"},
		Size:    10,
		Offset:  5,
	})

	body, err := repo.BuildQuery(req, []float32{0.1, 0.2})
	require.NoError(t, err)

	assert.Nil(t, body["query"])
	knn := body["knn"].(esquery.Map)
	assert.Equal(t, "embedding", knn["field"])
	assert.Equal(t, 15, knn["k"])
	assert.Equal(t, 150, knn["num_candidates"])
	assert.Equal(t, esquery.Map{"term": esquery.Map{"address.state": "UT"}}, knn["filter"])
}

func TestBuildQuery_SemanticRequiresVector(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{Query: "cabin", Mode: mode.Semantic})

	_, err := repo.BuildQuery(req, nil)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuildQuery_HybridBoostAdditivity(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{Query: "pool", Mode: mode.Hybrid})

	body, err := repo.BuildQuery(req, []float32{1, 0})
	require.NoError(t, err)

	must := dig(t, body, "query", "bool", "must").([]esquery.Map)
	require.Len(t, must, 1)
	should := dig(t, must[0], "bool", "should").([]esquery.Map)
	require.Len(t, should, 2)
	assert.Equal(t, 0.5, dig(t, should[0], "constant_score", "boost"))
	assert.Equal(t, 0.5, dig(t, should[1], "constant_score", "boost"))
	assert.NotNil(t, dig(t, should[0], "constant_score", "filter", "multi_match"))
	script := dig(t, should[1], "constant_score", "filter", "script_score", "script", "source")
	assert.Equal(t, "cosineSimilarity(params.query_vector, 'embedding') + 1.0", script)
	assert.Equal(t, 1, dig(t, must[0], "bool", "minimum_should_match"))
}

func TestBuildQuery_GeoOverridesSort(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{
		Mode:    mode.Text,
		Filters: filter.Property{Geo: &filter.GeoRadius{Lat: 40.76, Lon: -111.89, RadiusKm: 5}},
		Sort:    request.Sort{By: request.ByPrice, Order: request.Asc},
	})

	body, err := repo.BuildQuery(req, nil)
	require.NoError(t, err)

	sorts := body["sort"].([]esquery.Map)
	require.Len(t, sorts, 1)
	gd := dig(t, sorts[0], "_geo_distance").(esquery.Map)
	assert.Equal(t, "km", gd["unit"])
	assert.Equal(t, "asc", gd["order"])

	filters := dig(t, body, "query", "bool", "filter").([]esquery.Map)
	require.Len(t, filters, 1)
	assert.Equal(t, "5km", dig(t, filters[0], "geo_distance", "distance"))
}

func TestBuildQuery_SortKeys(t *testing.T) {
	tests := []struct {
		by    request.SortBy
		field string
	}{
		{request.ByPrice, "price"},
		{request.ByDate, "listing_date"},
		{request.ByBedrooms, "bedrooms"},
	}
	repo, _ := newTestRepo(t)
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			req := mustRequest(t, request.PropertyParams{Mode: mode.Text, Sort: request.Sort{By: tt.by}})
			body, err := repo.BuildQuery(req, nil)
			require.NoError(t, err)
			assert.Equal(t, []esquery.Map{{tt.field: esquery.Map{"order": "desc"}}}, body["sort"])
		})
	}
}

func TestBuildQuery_AggregationsAndHighlights(t *testing.T) {
	repo, _ := newTestRepo(t)
	req := mustRequest(t, request.PropertyParams{
		Query:   "garden",
		Mode:    mode.Text,
		Options: request.Options{IncludeAggregations: true, IncludeHighlights: true, Explain: true},
	})

	body, err := repo.BuildQuery(req, nil)
	require.NoError(t, err)

	aggs := body["aggs"].(esquery.Map)
	assert.Len(t, aggs, 6)
	assert.Equal(t, 10, dig(t, aggs, "property_types", "terms", "size"))
	assert.Equal(t, 20, dig(t, aggs, "cities", "terms", "size"))
	ranges := dig(t, aggs, "price_ranges", "range", "ranges").([]esquery.Map)
	require.Len(t, ranges, 4)
	assert.Equal(t, esquery.Map{"key": "under_200k", "to": 200000.0}, ranges[0])
	assert.Equal(t, esquery.Map{"key": "over_1m", "from": 1000000.0}, ranges[3])

	assert.Equal(t, []string{"<em>"}, dig(t, body, "highlight", "pre_tags"))
	assert.NotNil(t, dig(t, body, "highlight", "fields", "description"))
	assert.Equal(t, true, body["explain"])
}

// --- Search ---

func TestSearch_TextScenario(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ map[string]any) (*elastic.Response, error) {
		return &elastic.Response{
			ExecutionTimeMS: 7,
			Hits: elastic.Hits{
				Total: elastic.Total{Value: 100, Relation: "eq"},
				Hits: []elastic.Hit{
					hit("p1", 3.2, `{"listing_id":"p1","price":650000,"bedrooms":3,"address":{"city":"San Francisco"}}`),
					hit("p2", 2.1, `{"price":"720000","features":["deck"],"address":{"city":"San Francisco"}}`),
				},
			},
		}, nil
	}

	req := mustRequest(t, request.PropertyParams{
		Query:   "modern home",
		Mode:    mode.Text,
		Filters: filter.Property{MinPrice: f64(400000), MaxPrice: f64(800000), City: "San Francisco"},
	})
	resp, err := repo.Search(context.Background(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, "properties", ms.lastIndex)
	assert.Equal(t, int64(100), resp.TotalHits)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "San Francisco", resp.AppliedFilters["city"])
	assert.Equal(t, int64(7), resp.ExecutionTimeMS)
	assert.Equal(t, "p1", resp.Results[0].ID)
	assert.InDelta(t, 650000.0, resp.Results[0].Document.Price, 1e-9)
	assert.Equal(t, "p2", resp.Results[1].Document.ListingID)
	assert.InDelta(t, 720000.0, resp.Results[1].Document.Price, 1e-9)
	assert.Equal(t, []string{"deck"}, resp.Results[1].Document.Features)
	assert.Nil(t, resp.Results[0].DistanceKm)
}

func TestSearch_NeverExceedsRequestedSize(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ map[string]any) (*elastic.Response, error) {
		return &elastic.Response{Hits: elastic.Hits{
			Total: elastic.Total{Value: 1, Relation: "eq"},
			Hits: []elastic.Hit{
				hit("p1", 3, `{"price":1}`),
				hit("p2", 2, `{"price":2}`),
				hit("p3", 1, `{"price":3}`),
			},
		}}, nil
	}

	resp, err := repo.Search(context.Background(), mustRequest(t, request.PropertyParams{Mode: mode.Text, Size: 2}), nil)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "p2", resp.Results[1].ID)
	assert.GreaterOrEqual(t, resp.TotalHits, int64(len(resp.Results)))
}

func TestSearch_GeoDistances(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ map[string]any) (*elastic.Response, error) {
		near := hit("near", 0, `{"address":{"location":{"lat":40.76,"lon":-111.89}}}`)
		near.Sort = []any{1.25}
		far := hit("far", 0, `{"address":{"location":{"lat":40.86,"lon":-111.89}}}`)
		return &elastic.Response{Hits: elastic.Hits{Total: elastic.Total{Value: 2}, Hits: []elastic.Hit{near, far}}}, nil
	}

	req := mustRequest(t, request.PropertyParams{
		Mode:    mode.Text,
		Filters: filter.Property{Geo: &filter.GeoRadius{Lat: 40.76, Lon: -111.89, RadiusKm: 20}},
	})
	resp, err := repo.Search(context.Background(), req, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.Results[0].DistanceKm)
	assert.InDelta(t, 1.25, *resp.Results[0].DistanceKm, 1e-9)
	require.NotNil(t, resp.Results[1].DistanceKm)
	assert.InDelta(t, 11.1, *resp.Results[1].DistanceKm, 0.1)
}

func TestSearch_BackendError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, string, map[string]any) (*elastic.Response, error) {
		return nil, domain.ErrTransport
	}

	req := mustRequest(t, request.PropertyParams{Mode: mode.Text})
	_, err := repo.Search(context.Background(), req, nil)
	require.ErrorIs(t, err, domain.ErrTransport)
}

// --- GetEmbedding / SearchSimilar ---

func TestGetEmbedding(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string, id string, includes ...string) (*elastic.Document, error) {
		assert.Equal(t, []string{"embedding"}, includes)
		switch id {
		case "with":
			return &elastic.Document{ID: id, Found: true, Source: json.RawMessage(`{"embedding":[0.5,0.5]}`)}, nil
		case "without":
			return &elastic.Document{ID: id, Found: true, Source: json.RawMessage(`{}`)}, nil
		default:
			return nil, &elastic.Error{Op: "get", Status: 404, Err: domain.ErrNotFound}
		}
	}

	vec, err := repo.GetEmbedding(context.Background(), "with")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	_, err = repo.GetEmbedding(context.Background(), "without")
	require.ErrorIs(t, err, domain.ErrMissingEmbedding)

	_, err = repo.GetEmbedding(context.Background(), "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchSimilar_ExcludesReference(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, _ map[string]any) (*elastic.Response, error) {
		return &elastic.Response{Hits: elastic.Hits{
			Total: elastic.Total{Value: 4},
			Hits: []elastic.Hit{
				hit("ref", 1, `{}`),
				hit("a", 0.9, `{}`),
				hit("b", 0.8, `{}`),
				hit("c", 0.7, `{}`),
			},
		}}, nil
	}

	resp, err := repo.SearchSimilar(context.Background(), "ref", []float32{1, 0}, 2)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.NotEqual(t, "ref", r.ID)
	}
	assert.Equal(t, "a", resp.Results[0].ID)

	knn := ms.lastBody["knn"].(esquery.Map)
	assert.Equal(t, 3, knn["k"])
	assert.Equal(t, esquery.Map{"bool": esquery.Map{"must_not": []esquery.Map{{"ids": esquery.Map{"values": []string{"ref"}}}}}}, knn["filter"])
}

// --- Stats ---

func TestStats(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(_ context.Context, _ string, body map[string]any) (*elastic.Response, error) {
		assert.Equal(t, 0, body["size"])
		return &elastic.Response{
			Hits: elastic.Hits{Total: elastic.Total{Value: 12}},
			Aggregations: map[string]json.RawMessage{
				"avg_price":       json.RawMessage(`{"value":500000}`),
				"avg_bedrooms":    json.RawMessage(`{"value":3.5}`),
				"avg_square_feet": json.RawMessage(`{"value":1800}`),
				"property_types":  json.RawMessage(`{"buckets":[{"key":"condo","doc_count":7}]}`),
			},
		}, nil
	}

	stats, err := repo.Stats(context.Background(), "Provo", "UT")
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.PropertyCount)
	assert.InDelta(t, 500000.0, stats.AvgPrice, 1e-9)
	assert.InDelta(t, 3.5, stats.AvgBedrooms, 1e-9)
	assert.InDelta(t, 1800.0, stats.AvgSquareFeet, 1e-9)
	assert.Equal(t, map[string]int64{"condo": 7}, stats.PropertyTypes)

	filters := dig(t, ms.lastBody, "query", "bool", "filter").([]esquery.Map)
	assert.Len(t, filters, 2)
}

func TestStats_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchFn = func(context.Context, string, map[string]any) (*elastic.Response, error) {
		return nil, errors.New("boom")
	}
	_, err := repo.Stats(context.Background(), "Provo", "")
	require.Error(t, err)
}
