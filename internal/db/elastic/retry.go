package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
)

// Error describes a failed backend call. Err wraps one of domain.ErrTransport,
// domain.ErrRequest or domain.ErrNotFound.
type Error struct {
	Op     string
	Index  string
	Status int
	Reason string
	Err    error

	transient bool
}

func (e *Error) Error() string {
	msg := "elastic " + e.Op
	if e.Index != "" {
		msg += " " + e.Index
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

type errorDetail struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (d *errorDetail) String() string {
	if d.Type == "" {
		return d.Reason
	}
	return d.Type + ": " + d.Reason
}

type call func(ctx context.Context) (*esapi.Response, error)

// do runs fn with a per-attempt timeout and retries transient failures:
// network errors, attempt timeouts and 429/502/503/504 responses.
// Waits grow exponentially from retryMin, capped at retryMax.
func (s *Store) do(ctx context.Context, op, index string, fn call, decode func(io.Reader) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.retryMin
	eb.MaxInterval = s.retryMax
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(s.attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := s.attempt(ctx, op, index, fn, decode)
		if err == nil {
			return nil
		}
		var e *Error
		if errors.As(err, &e) && e.transient && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		metrics.BackendRetries.WithLabelValues(op).Inc()
		s.logger.Warn("search backend call failed, retrying",
			zap.String("op", op),
			zap.String("index", index),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, policy, notify)
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	// context canceled while waiting between attempts
	return &Error{Op: op, Index: index, Err: err}
}

func (s *Store) attempt(ctx context.Context, op, index string, fn call, decode func(io.Reader) error) error {
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := fn(actx)
	if err != nil {
		return &Error{Op: op, Index: index, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err), transient: true}
	}
	defer res.Body.Close()

	if res.IsError() {
		return statusError(op, index, res)
	}
	if err := decode(res.Body); err != nil {
		if actx.Err() != nil {
			return &Error{Op: op, Index: index, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err), transient: true}
		}
		return &Error{Op: op, Index: index, Status: res.StatusCode, Err: fmt.Errorf("%w: decode response: %w", domain.ErrRequest, err)}
	}
	return nil
}

func statusError(op, index string, res *esapi.Response) *Error {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&body)

	var detail errorDetail
	if len(body.Error) > 0 {
		if err := json.Unmarshal(body.Error, &detail); err != nil {
			// some endpoints return the error as a plain string
			var s string
			_ = json.Unmarshal(body.Error, &s)
			detail.Reason = s
		}
	}

	e := &Error{
		Op:     op,
		Index:  index,
		Status: res.StatusCode,
		Reason: detail.String(),
		Err:    classifyStatus(res.StatusCode, detail.Type),
	}
	e.transient = errors.Is(e.Err, domain.ErrTransport)
	return e
}

func classifyStatus(status int, errType string) error {
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		return domain.ErrTransport
	case status == http.StatusNotFound && errType == "":
		// document API: {"found": false} without an error object
		return domain.ErrNotFound
	default:
		return domain.ErrRequest
	}
}
