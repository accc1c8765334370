// Package elastic executes search requests against Elasticsearch with per-attempt
// timeouts, bounded exponential-backoff retries and typed responses.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/db"
	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// Config holds connection and retry settings.
type Config struct {
	Addrs    []string
	Username string
	Password string
	APIKey   string

	RequestTimeout time.Duration
	MaxAttempts    int
	RetryMin       time.Duration
	RetryMax       time.Duration

	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Store is the search executor shared by every repository.
type Store struct {
	es       *elasticsearch.Client
	timeout  time.Duration
	attempts int
	retryMin time.Duration
	retryMax time.Duration
	logger   *zap.Logger
}

// New creates a Store. The client's own retry loop is disabled in favor of ours.
func New(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		APIKey:       cfg.APIKey,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	s := &Store{
		es:       es,
		timeout:  cfg.RequestTimeout,
		attempts: cfg.MaxAttempts,
		retryMin: cfg.RetryMin,
		retryMax: cfg.RetryMax,
		logger:   cfg.Logger,
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.attempts <= 0 {
		s.attempts = 3
	}
	if s.retryMin <= 0 {
		s.retryMin = 2 * time.Second
	}
	if s.retryMax < s.retryMin {
		s.retryMax = s.retryMin
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Search runs one query against index (a name or a pattern such as wiki_chunks_*).
func (s *Store) Search(ctx context.Context, index string, body map[string]any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Op: db.OpSearch, Index: index, Err: fmt.Errorf("%w: encode body: %w", domain.ErrRequest, err)}
	}

	var out Response
	start := time.Now()
	err = s.do(ctx, db.OpSearch, index,
		func(ctx context.Context) (*esapi.Response, error) {
			return s.es.Search(
				s.es.Search.WithContext(ctx),
				s.es.Search.WithIndex(index),
				s.es.Search.WithBody(bytes.NewReader(payload)),
			)
		},
		func(r io.Reader) error { return json.NewDecoder(r).Decode(&out) },
	)
	if err != nil {
		return nil, err
	}
	out.ExecutionTimeMS = time.Since(start).Milliseconds()

	s.logger.Debug("search executed",
		zap.String("index", index),
		zap.Int64("total", out.Hits.Total.Value),
		zap.Int("hits", len(out.Hits.Hits)),
		zap.Int64("took_ms", out.Took),
		zap.Int64("elapsed_ms", out.ExecutionTimeMS),
	)
	return &out, nil
}

// Get fetches one document by id. A missing document yields domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, index, id string, includes ...string) (*Document, error) {
	var out Document
	err := s.do(ctx, db.OpDocGet, index,
		func(ctx context.Context) (*esapi.Response, error) {
			opts := []func(*esapi.GetRequest){s.es.Get.WithContext(ctx)}
			if len(includes) > 0 {
				opts = append(opts, s.es.Get.WithSourceIncludes(includes...))
			}
			return s.es.Get(index, id, opts...)
		},
		func(r io.Reader) error { return json.NewDecoder(r).Decode(&out) },
	)
	if err != nil {
		return nil, err
	}
	if !out.Found {
		return nil, &Error{Op: db.OpDocGet, Index: index, Status: http.StatusNotFound, Err: domain.ErrNotFound}
	}
	return &out, nil
}

// MultiQuery is one entry of a multi-search round trip.
type MultiQuery struct {
	Index string
	Body  map[string]any
}

// MultiResult is the outcome of one MultiQuery. Exactly one of Response and Err is set.
type MultiResult struct {
	Response *Response
	Err      error
}

// MultiSearch runs several queries in a single round trip and returns results in request order.
// A per-query failure is reported in its MultiResult; the returned error covers the round trip itself.
func (s *Store) MultiSearch(ctx context.Context, queries []MultiQuery) ([]MultiResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, q := range queries {
		if err := enc.Encode(map[string]any{"index": q.Index}); err != nil {
			return nil, &Error{Op: db.OpMsearch, Index: q.Index, Err: fmt.Errorf("%w: encode header: %w", domain.ErrRequest, err)}
		}
		if err := enc.Encode(q.Body); err != nil {
			return nil, &Error{Op: db.OpMsearch, Index: q.Index, Err: fmt.Errorf("%w: encode body: %w", domain.ErrRequest, err)}
		}
	}
	payload := buf.Bytes()

	var raw struct {
		Responses []multiItem `json:"responses"`
	}
	start := time.Now()
	err := s.do(ctx, db.OpMsearch, "",
		func(ctx context.Context) (*esapi.Response, error) {
			return s.es.Msearch(bytes.NewReader(payload), s.es.Msearch.WithContext(ctx))
		},
		func(r io.Reader) error { return json.NewDecoder(r).Decode(&raw) },
	)
	if err != nil {
		return nil, err
	}
	if len(raw.Responses) != len(queries) {
		return nil, &Error{Op: db.OpMsearch, Err: fmt.Errorf("%w: expected %d responses, got %d",
			domain.ErrRequest, len(queries), len(raw.Responses))}
	}

	elapsed := time.Since(start).Milliseconds()
	out := make([]MultiResult, len(queries))
	for i, item := range raw.Responses {
		if item.Error != nil {
			out[i].Err = &Error{
				Op:     db.OpMsearch,
				Index:  queries[i].Index,
				Status: item.Status,
				Reason: item.Error.String(),
				Err:    classifyStatus(item.Status, item.Error.Type),
			}
			continue
		}
		resp := item.Response
		resp.ExecutionTimeMS = elapsed
		out[i].Response = &resp
	}
	return out, nil
}

// Ping checks cluster reachability without retries.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return &Error{Op: db.OpPing, Err: fmt.Errorf("%w: %w", domain.ErrTransport, err)}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &Error{Op: db.OpPing, Status: res.StatusCode, Err: classifyStatus(res.StatusCode, "")}
	}
	return nil
}

type multiItem struct {
	Response
	Status int          `json:"status"`
	Error  *errorDetail `json:"error"`
}
