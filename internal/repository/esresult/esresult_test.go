package esresult

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

func TestSource_Accessors(t *testing.T) {
	src := ParseSource(json.RawMessage(`{
		"listing_id": "p1",
		"price": 450000,
		"bathrooms": "2.5",
		"bedrooms": 3,
		"features": ["pool", 7, "garage"],
		"amenities": "gym",
		"address": {"city": "Park City", "location": {"lat": 40.64, "lon": -111.49}},
		"embedding": [0.5, 0.25]
	}`))

	assert.Equal(t, "p1", src.String("listing_id"))
	assert.Equal(t, "450000", src.String("price"))
	assert.InDelta(t, 450000.0, src.Float("price"), 1e-9)
	assert.InDelta(t, 2.5, src.Float("bathrooms"), 1e-9)
	assert.Equal(t, 3, src.Int("bedrooms"))
	assert.Equal(t, []string{"pool", "garage"}, src.Strings("features"))
	assert.Equal(t, []string{"gym"}, src.Strings("amenities"))
	assert.Equal(t, "Park City", src.String("address.city"))
	assert.Equal(t, []float32{0.5, 0.25}, src.Vector("embedding"))

	loc := src.GeoPoint("address.location")
	require.NotNil(t, loc)
	assert.InDelta(t, 40.64, loc.Lat, 1e-9)
	assert.InDelta(t, -111.49, loc.Lon, 1e-9)
}

func TestSource_MissingAndMalformed(t *testing.T) {
	src := ParseSource(json.RawMessage(`{"price": "n/a", "tags": null, "embedding": [1, "x"]}`))

	assert.Empty(t, src.String("title"))
	assert.Zero(t, src.Float("price"))
	assert.Nil(t, src.IntPtr("price"))
	assert.Equal(t, []string{}, src.Strings("tags"))
	assert.False(t, src.Has("tags"))
	assert.Nil(t, src.Vector("embedding"))
	assert.Nil(t, src.GeoPoint("location"))
	assert.Empty(t, src.String("address.city"))
}

func TestParseSource_Invalid(t *testing.T) {
	assert.Empty(t, ParseSource(json.RawMessage(`not json`)))
	assert.Empty(t, ParseSource(nil))
}

func TestSource_GeoPointForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "object", raw: `{"loc": {"lat": 37.77, "lon": -122.42}}`, ok: true},
		{name: "string", raw: `{"loc": "37.77, -122.42"}`, ok: true},
		{name: "array lon lat", raw: `{"loc": [-122.42, 37.77]}`, ok: true},
		{name: "out of range", raw: `{"loc": {"lat": 137.77, "lon": -122.42}}`},
		{name: "garbage string", raw: `{"loc": "somewhere"}`},
		{name: "short array", raw: `{"loc": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseSource(json.RawMessage(tt.raw)).GeoPoint("loc")
			if !tt.ok {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.InDelta(t, 37.77, p.Lat, 1e-9)
			assert.InDelta(t, -122.42, p.Lon, 1e-9)
		})
	}
}

func TestHighlightsAndDistance(t *testing.T) {
	assert.Nil(t, Highlights(map[string][]string{}))
	h := map[string][]string{"description": {"<em>pool</em>"}}
	assert.Equal(t, h, Highlights(h))

	assert.Nil(t, DistanceKm(nil))
	assert.Nil(t, DistanceKm([]any{"p1"}))
	d := DistanceKm([]any{2.5})
	require.NotNil(t, d)
	assert.InDelta(t, 2.5, *d, 1e-9)
}

func TestParseAggregations(t *testing.T) {
	raw := map[string]json.RawMessage{
		"property_types": json.RawMessage(`{"doc_count_error_upper_bound":0,"sum_other_doc_count":0,
			"buckets":[{"key":"condo","doc_count":5},{"key":"single_family","doc_count":2}]}`),
		"bedrooms": json.RawMessage(`{"buckets":[{"key":3,"doc_count":4}]}`),
		"price_ranges": json.RawMessage(`{"buckets":[
			{"key":"under_200k","to":200000.0,"doc_count":1},
			{"key":"over_1m","from":1000000.0,"doc_count":0}]}`),
		"avg_price":       json.RawMessage(`{"value":512000.5}`),
		"avg_square_feet": json.RawMessage(`{"value":null}`),
		"broken":          json.RawMessage(`[]`),
	}

	aggs := ParseAggregations(raw)
	require.Len(t, aggs, 5)

	names := make([]string, len(aggs))
	for i, a := range aggs {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"avg_price", "avg_square_feet", "bedrooms", "price_ranges", "property_types"}, names)

	assert.Equal(t, result.AggMetric, aggs[0].Type)
	require.NotNil(t, aggs[0].Value)
	assert.InDelta(t, 512000.5, *aggs[0].Value, 1e-9)
	assert.Nil(t, aggs[1].Value)

	assert.Equal(t, result.AggTerms, aggs[2].Type)
	assert.Equal(t, "3", aggs[2].Buckets[0].Key)

	assert.Equal(t, result.AggRange, aggs[3].Type)
	require.NotNil(t, aggs[3].Buckets[0].To)
	assert.Nil(t, aggs[3].Buckets[0].From)
	assert.InDelta(t, 200000.0, *aggs[3].Buckets[0].To, 1e-9)

	assert.Equal(t, map[string]int64{"condo": 5, "single_family": 2}, Counts(aggs, "property_types"))
	assert.InDelta(t, 512000.5, Metric(aggs, "avg_price"), 1e-9)
	assert.Zero(t, Metric(aggs, "avg_square_feet"))
}

func TestParseAggregations_Empty(t *testing.T) {
	assert.Nil(t, ParseAggregations(nil))
}

func TestParseAggregation_RangeDetectedByBounds(t *testing.T) {
	agg, ok := parseAggregation("sqft", json.RawMessage(`{"buckets":[
		{"key":"small","doc_count":3},
		{"key":"large","from":2000.0,"doc_count":1}]}`))
	require.True(t, ok)
	assert.Equal(t, result.AggRange, agg.Type)
	assert.Equal(t, int64(3), agg.Buckets[0].DocCount)

	agg, ok = parseAggregation("cities", json.RawMessage(`{"buckets":[{"key":"Ogden","doc_count":3}]}`))
	require.True(t, ok)
	assert.Equal(t, result.AggTerms, agg.Type)
}
