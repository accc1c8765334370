package relevance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	domrel "github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

// BreakerSettings configures the classifier circuit breaker.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// BreakerClassifier stops calling the LLM after repeated failures and fails fast until
// the breaker half-opens again.
type BreakerClassifier struct {
	inner Classifier
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerClassifier wraps inner with a circuit breaker.
func NewBreakerClassifier(inner Classifier, s BreakerSettings, logger *zap.Logger) *BreakerClassifier {
	failures := s.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	st := gobreaker.Settings{
		Name:        "llm-classifier",
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Caller cancellation says nothing about the LLM's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &BreakerClassifier{inner: inner, cb: gobreaker.NewCircuitBreaker(st)}
}

// Classify runs the inner classifier through the breaker. Rejections wrap domain.ErrLLM.
func (b *BreakerClassifier) Classify(ctx context.Context, a domrel.Article) (domrel.LocationClassification, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Classify(ctx, a)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domrel.LocationClassification{}, fmt.Errorf("%w: %w", domain.ErrLLM, err)
		}
		return domrel.LocationClassification{}, err
	}
	return v.(domrel.LocationClassification), nil
}

// State returns the breaker state.
func (b *BreakerClassifier) State() gobreaker.State {
	return b.cb.State()
}
