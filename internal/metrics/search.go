package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

const namespace = "estatesearch"

// Search and pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Entity searches by mode and outcome",
		},
		[]string{"entity", "mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end entity search duration, embedding included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"entity"},
	)

	BackendRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_retries_total",
			Help:      "Search backend calls retried after a transient failure",
		},
		[]string{"op"},
	)

	EnrichmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Optional result enrichments that failed and were omitted",
		},
		[]string{"kind"},
	)

	RelevanceArticlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relevance_articles_total",
			Help:      "Articles processed by the relevance pipeline by final state",
		},
		[]string{"outcome"}, // kept, flagged, removed, relocated, error
	)

	LocationTypesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relevance_location_types_total",
			Help:      "Location types returned by the classifier, known vs open-vocabulary",
		},
		[]string{"known"},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchRequestsTotal,
			SearchDuration,
			BackendRetries,
			EnrichmentFailures,
			RelevanceArticlesTotal,
			LocationTypesTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpResponseBytes,
			httpInFlight,
		)
	})
}

// ObserveSearch records one entity search. status is ok, invalid, unavailable or error.
func ObserveSearch(entity, mode string, start time.Time, err error) {
	SearchRequestsTotal.WithLabelValues(entity, mode, searchStatus(err)).Inc()
	SearchDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())
}

func searchStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrMissingEmbedding):
		return "invalid"
	case errors.Is(err, domain.ErrTransport):
		return "unavailable"
	default:
		return "error"
	}
}
