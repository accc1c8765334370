package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/v1/properties/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	r.Get("/api/v1/properties/{id}/similar", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	return r
}

func TestMiddleware_RecordsRequest(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/v1/properties/search", "2xx"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/properties/search", http.NoBody))
	require.Equal(t, http.StatusOK, rr.Code)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/v1/properties/search", "2xx"))
	assert.InDelta(t, 1, after-before, 0)
	assert.Positive(t, testutil.CollectAndCount(httpRequestDuration))
	assert.Positive(t, testutil.CollectAndCount(httpResponseBytes))
	assert.InDelta(t, 0, testutil.ToFloat64(httpInFlight), 0)
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := newRouter()
	counter := httpRequestsTotal.WithLabelValues("GET", "/api/v1/properties/{id}/similar", "4xx")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+id+"/similar", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.InDelta(t, 3, testutil.ToFloat64(counter)-before, 0)
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := newRouter()
	counter := httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "4xx")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", http.NoBody))

	assert.InDelta(t, 1, testutil.ToFloat64(counter)-before, 0)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{101: "1xx", 200: "2xx", 204: "2xx", 304: "3xx", 404: "4xx", 422: "4xx", 503: "5xx"}
	for status, want := range tests {
		assert.Equal(t, want, statusClass(status), status)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
}
