package estatesearch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/estatesearch/internal/usecase/health"
)

// --- propertyUseCase mock ---

type mockPropertyUC struct {
	searchFn  func(ctx context.Context, req *request.Property) (*result.Response[result.Property], error)
	geoFn     func(ctx context.Context, lat, lon, radiusKm float64, f PropertyFilters, size int) (*result.Response[result.Property], error)
	similarFn func(ctx context.Context, id string, size int) (*result.Response[result.Property], error)
}

func (m *mockPropertyUC) Search(
	ctx context.Context, req *request.Property,
) (*result.Response[result.Property], error) {
	return m.searchFn(ctx, req)
}

func (m *mockPropertyUC) SearchGeo(
	ctx context.Context, lat, lon, radiusKm float64, f PropertyFilters, size int,
) (*result.Response[result.Property], error) {
	return m.geoFn(ctx, lat, lon, radiusKm, f, size)
}

func (m *mockPropertyUC) SearchSimilar(
	ctx context.Context, id string, size int,
) (*result.Response[result.Property], error) {
	return m.similarFn(ctx, id, size)
}

// --- wikipediaUseCase mock ---

type mockWikipediaUC struct {
	searchFn     func(ctx context.Context, req *request.Wikipedia) (*result.Response[result.Wikipedia], error)
	byCategoryFn func(ctx context.Context, categories []string, size int) (*result.Response[result.Wikipedia], error)
}

func (m *mockWikipediaUC) Search(
	ctx context.Context, req *request.Wikipedia,
) (*result.Response[result.Wikipedia], error) {
	return m.searchFn(ctx, req)
}

func (m *mockWikipediaUC) SearchByCategory(
	ctx context.Context, categories []string, size int,
) (*result.Response[result.Wikipedia], error) {
	return m.byCategoryFn(ctx, categories, size)
}

// --- neighborhoodUseCase mock ---

type mockNeighborhoodUC struct {
	searchFn    func(ctx context.Context, req *request.Neighborhood) (*result.Response[result.Neighborhood], error)
	withStatsFn func(ctx context.Context, req *request.Neighborhood) (*result.NeighborhoodResponse, error)
}

func (m *mockNeighborhoodUC) Search(
	ctx context.Context, req *request.Neighborhood,
) (*result.Response[result.Neighborhood], error) {
	return m.searchFn(ctx, req)
}

func (m *mockNeighborhoodUC) SearchWithStats(
	ctx context.Context, req *request.Neighborhood,
) (*result.NeighborhoodResponse, error) {
	return m.withStatsFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- Elasticsearch transport ---

// esTransport answers every request with the status and body routed by path suffix,
// defaulting to 200 "{}".
type esTransport struct {
	mu     sync.Mutex
	status int
	routes map[string]string
	paths  []string
	bodies []string
}

func (t *esTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.paths = append(t.paths, req.URL.Path)
	body := ""
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		body = string(data)
	}
	t.bodies = append(t.bodies, body)

	status := t.status
	if status == 0 {
		status = http.StatusOK
	}
	out := "{}"
	for suffix, b := range t.routes {
		if strings.HasSuffix(req.URL.Path, suffix) {
			out = b
		}
	}
	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Elastic-Product": []string{"Elasticsearch"},
		},
		Body:    io.NopCloser(strings.NewReader(out)),
		Request: req,
	}, nil
}
