package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/estatesearch/internal/logger"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/estatesearch/internal/usecase/health"
)

const maxBodyBytes = 1 << 20

// PropertySearcher is the property search surface used by the API.
type PropertySearcher interface {
	Search(ctx context.Context, req *request.Property) (*result.Response[result.Property], error)
	SearchSimilar(ctx context.Context, referenceID string, size int) (*result.Response[result.Property], error)
}

// WikipediaSearcher is the Wikipedia search surface used by the API.
type WikipediaSearcher interface {
	Search(ctx context.Context, req *request.Wikipedia) (*result.Response[result.Wikipedia], error)
}

// NeighborhoodSearcher is the neighborhood search surface used by the API.
type NeighborhoodSearcher interface {
	Search(ctx context.Context, req *request.Neighborhood) (*result.Response[result.Neighborhood], error)
	SearchWithStats(ctx context.Context, req *request.Neighborhood) (*result.NeighborhoodResponse, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Services groups the use cases served over HTTP.
type Services struct {
	Properties    PropertySearcher
	Wikipedia     WikipediaSearcher
	Neighborhoods NeighborhoodSearcher
	Health        HealthChecker
}

// Config holds router settings.
type Config struct {
	APIKeys        []string
	AllowedOrigins []string
}

// Server serves the search API.
type Server struct {
	svc    Services
	cfg    Config
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, cfg: cfg, logger: logger}
}

// Handler builds the chi router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(BearerAuthMiddleware(s.cfg.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrTypeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrTypeBadRequest, "method not allowed", nil)
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/properties/search", s.SearchProperties)
		r.Get("/properties/{id}/similar", s.SimilarProperties)
		r.Post("/wikipedia/search", s.SearchWikipedia)
		r.Post("/neighborhoods/search", s.SearchNeighborhoods)
	})

	return r
}

// SearchProperties handles POST /api/v1/properties/search.
func (s *Server) SearchProperties(w http.ResponseWriter, r *http.Request) {
	var body propertySearchBody
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}

	resp, err := s.svc.Properties.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SimilarProperties handles GET /api/v1/properties/{id}/similar.
func (s *Server) SimilarProperties(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	query := map[string]any{"id": id}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		query["size"] = raw
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrTypeValidation, "size must be an integer", query)
			return
		}
		size = n
	}

	resp, err := s.svc.Properties.SearchSimilar(r.Context(), id, size)
	if err != nil {
		s.handleDomainError(w, r, err, query)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchWikipedia handles POST /api/v1/wikipedia/search.
func (s *Server) SearchWikipedia(w http.ResponseWriter, r *http.Request) {
	var body wikipediaSearchBody
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}

	resp, err := s.svc.Wikipedia.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchNeighborhoods handles POST /api/v1/neighborhoods/search.
func (s *Server) SearchNeighborhoods(w http.ResponseWriter, r *http.Request) {
	var body neighborhoodSearchBody
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := body.toRequest()
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}

	if body.IncludeStatistics {
		resp, err := s.svc.Neighborhoods.SearchWithStats(r.Context(), &req)
		if err != nil {
			s.handleDomainError(w, r, err, body)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp, err := s.svc.Neighborhoods.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err, body)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health. Only an unhealthy report maps to 503.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error, query any) {
	log := logpkg.FromContext(r.Context())
	for _, h := range errorHandlers {
		if h(w, err, query) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrTypeInternal, "internal error", query)
}

// decodeBody reads a JSON body, writing a 400 and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, ErrTypeBadRequest, msg, nil)
		return false
	}
	return true
}
