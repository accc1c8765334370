package estatesearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const propertyHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 1, "relation": "eq"},
    "max_score": 2.5,
    "hits": [{
      "_index": "properties", "_id": "prop-1", "_score": 2.5,
      "_source": {"listing_id": "prop-1", "price": 750000, "address": {"city": "Park City", "state": "UT"}}
    }]
  }
}`

func newTestClient(t *testing.T, rt *esTransport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithElasticsearch("http://es:9200"),
		WithTransport(rt),
		WithRetry(1, time.Millisecond, time.Millisecond),
	}, opts...)
	c, err := New(context.Background(), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_NoAddress(t *testing.T) {
	_, err := New(context.Background())
	require.ErrorContains(t, err, "elasticsearch address required")
}

func TestNew_NotReady(t *testing.T) {
	rt := &esTransport{status: 503}
	_, err := New(context.Background(),
		WithElasticsearch("http://es:9200"),
		WithTransport(rt),
		WithRetry(1, time.Millisecond, time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "not ready")
}

func TestClient_TextSearchEndToEnd(t *testing.T) {
	rt := &esTransport{routes: map[string]string{"/_search": propertyHits}}
	c := newTestClient(t, rt, WithIndices(Indices{Properties: "listings"}))

	res, err := c.Properties().Search(context.Background(), PropertyQuery{
		Query:   "ski in ski out",
		Mode:    ModeText,
		Filters: PropertyFilters{City: "Park City"},
		Size:    5,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "prop-1", res.Results[0].ID)
	assert.Equal(t, int64(1), res.TotalHits)
	assert.Equal(t, "Park City", res.AppliedFilters["city"])

	last := rt.paths[len(rt.paths)-1]
	assert.Equal(t, "/listings/_search", last)
	assert.True(t, strings.Contains(rt.bodies[len(rt.bodies)-1], "ski in ski out"))
}

const neighborhoodHits = `{
  "took": 2,
  "hits": {
    "total": {"value": 1, "relation": "eq"},
    "hits": [{
      "_index": "wikipedia", "_id": "enwiki-9", "_score": 1.5,
      "_source": {"page_id": "9", "title": "The Avenues", "city": "Salt Lake City", "categories": ["Neighborhoods in Salt Lake City"]}
    }]
  }
}`

func TestClient_NeighborhoodSearchSendsCategories(t *testing.T) {
	rt := &esTransport{routes: map[string]string{"/_search": neighborhoodHits}}
	c := newTestClient(t, rt)

	res, err := c.Neighborhoods().Search(context.Background(), NeighborhoodQuery{Query: "historic", City: "Salt Lake City"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "The Avenues", res.Results[0].Document.Name)
	assert.Equal(t, "enwiki-9", res.Results[0].Document.DocID)

	assert.Equal(t, "/wikipedia/_search", rt.paths[len(rt.paths)-1])
	body := rt.bodies[len(rt.bodies)-1]
	assert.Contains(t, body, `"terms":{"categories":["neighborhoods","districts","communities"]}`)
	assert.NotContains(t, body, "null")
}

func TestClient_SemanticWithoutEmbedder(t *testing.T) {
	rt := &esTransport{}
	c := newTestClient(t, rt)
	calls := len(rt.paths)

	_, err := c.Properties().Search(context.Background(), PropertyQuery{Query: "quiet street", Mode: ModeSemantic})
	require.ErrorIs(t, err, errNoEmbedder)
	assert.Equal(t, calls, len(rt.paths), "no search must be sent without a query vector")
}

func TestClient_ValidationBeforeIO(t *testing.T) {
	rt := &esTransport{}
	c := newTestClient(t, rt)
	calls := len(rt.paths)

	minP, maxP := 500000.0, 100000.0
	_, err := c.Properties().Search(context.Background(), PropertyQuery{
		Mode:    ModeText,
		Filters: PropertyFilters{MinPrice: &minP, MaxPrice: &maxP},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, calls, len(rt.paths))
}

func TestClient_PingAndHealth(t *testing.T) {
	c := newTestClient(t, &esTransport{})

	require.NoError(t, c.Ping(context.Background()))

	h := c.Health(context.Background())
	assert.True(t, h.OK())
	assert.Equal(t, map[string]bool{"elasticsearch": true}, h.Reachable)
	assert.Empty(t, h.Failing())
}

func TestNoopEmbedder(t *testing.T) {
	_, err := noopEmbedder{}.Embed(context.Background(), "test")
	require.ErrorIs(t, err, errNoEmbedder)
}

func TestEmbedderAdapter(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			assert.Equal(t, "hello", text)
			return EmbeddingResult{Embedding: []float32{1, 2, 3}, TotalTokens: 10}, nil
		},
	}}

	res, err := adapter.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, res.Embedding, 3)
	assert.Equal(t, 10, res.TotalTokens)
}

func TestEmbedderAdapter_WrapsProviderError(t *testing.T) {
	adapter := &embedderAdapter{inner: &mockEmbedder{
		fn: func(context.Context, string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("rate limited")
		},
	}}

	_, err := adapter.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmbeddingProviderError)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestObserver_MetricsAndReuse(t *testing.T) {
	reg := prometheus.NewRegistry()

	obs, err := newObserver(zap.NewNop(), reg)
	require.NoError(t, err)
	obs.call("properties", "search", time.Now(), 4, nil)
	obs.call("properties", "search", time.Now(), -1, fmt.Errorf("search: %w", ErrTransport))
	obs.call("properties", "similar", time.Now(), -1, ErrMissingEmbedding)

	calls := obs.metrics.calls
	assert.InDelta(t, 1, testutil.ToFloat64(calls.WithLabelValues("properties", "search", outcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(calls.WithLabelValues("properties", "search", outcomeUnavailable)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(calls.WithLabelValues("properties", "similar", outcomeNotFound)), 0)

	// A second client on the same registry shares the collectors.
	again, err := newObserver(nil, reg)
	require.NoError(t, err)
	again.call("properties", "search", time.Now(), 0, nil)
	assert.InDelta(t, 2, testutil.ToFloat64(calls.WithLabelValues("properties", "search", outcomeOK)), 0)
}

func TestObserver_IncompatibleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "estatesearch", Subsystem: "sdk", Name: "call_duration_seconds", Help: "clash",
	}))

	_, err := newObserver(nil, reg)
	require.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{fmt.Errorf("wrap: %w", ErrValidation), outcomeInvalid},
		{ErrNotFound, outcomeNotFound},
		{ErrMissingEmbedding, outcomeNotFound},
		{ErrTransport, outcomeUnavailable},
		{ErrEmbeddingProviderError, outcomeUnavailable},
		{ErrRequest, outcomeError},
		{errors.New("boom"), outcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, outcome(tt.err), "%v", tt.err)
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.call("cluster", "ping", time.Now(), -1, nil)
}
