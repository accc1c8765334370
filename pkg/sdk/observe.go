package estatesearch

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// Call outcomes recorded by the client.
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeNotFound    = "not_found"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// outcome buckets an error by the domain taxonomy.
func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, domain.ErrValidation):
		return outcomeInvalid
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrMissingEmbedding):
		return outcomeNotFound
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrEmbeddingProviderError):
		return outcomeUnavailable
	default:
		return outcomeError
	}
}

// clientMetrics are the collectors a Client reports to when WithPrometheus is set.
type clientMetrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	returned *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	calls, err := share(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estatesearch",
		Subsystem: "sdk",
		Name:      "calls_total",
		Help:      "Client calls by entity, operation and outcome.",
	}, []string{"entity", "operation", "outcome"}))
	if err != nil {
		return nil, err
	}
	latency, err := share(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "estatesearch",
		Subsystem: "sdk",
		Name:      "call_duration_seconds",
		Help:      "Client call latency in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"entity"}))
	if err != nil {
		return nil, err
	}
	returned, err := share(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "estatesearch",
		Subsystem: "sdk",
		Name:      "returned_results",
		Help:      "Results returned per successful search.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
	}, []string{"entity"}))
	if err != nil {
		return nil, err
	}
	return &clientMetrics{calls: calls, latency: latency, returned: returned}, nil
}

// share registers c, or returns the collector already registered under the same
// descriptor so several clients can report to one registry.
func share[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return c, fmt.Errorf("estatesearch: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("estatesearch: metric registered with incompatible type %T", are.ExistingCollector)
	}
	return existing, nil
}

// observer logs and measures client calls. A nil observer is a no-op.
type observer struct {
	logger  *zap.Logger
	metrics *clientMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	obs := &observer{logger: logger.Named("estatesearch")}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		obs.metrics = m
	}
	return obs, nil
}

// call records one finished call. results is the number of hits returned, or -1 when
// the call is not a search.
func (o *observer) call(entity, op string, start time.Time, results int, err error) {
	if o == nil {
		return
	}
	took := time.Since(start)
	out := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(entity, op, out).Inc()
		o.metrics.latency.WithLabelValues(entity).Observe(took.Seconds())
		if err == nil && results >= 0 {
			o.metrics.returned.WithLabelValues(entity).Observe(float64(results))
		}
	}

	fields := []zap.Field{
		zap.String("entity", entity),
		zap.String("op", op),
		zap.Duration("took", took),
	}
	switch out {
	case outcomeOK:
		if results >= 0 {
			fields = append(fields, zap.Int("results", results))
		}
		o.logger.Debug("call completed", fields...)
	case outcomeInvalid, outcomeNotFound:
		o.logger.Debug("call rejected", append(fields, zap.String("outcome", out), zap.Error(err))...)
	default:
		o.logger.Warn("call failed", append(fields, zap.String("outcome", out), zap.Error(err))...)
	}
}
