package elastic

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport replays canned responses in order and records every request.
type fakeTransport struct {
	mu        sync.Mutex
	responses []func(*http.Request) (*http.Response, error)
	requests  []*recorded
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec := &recorded{Method: req.Method, Path: req.URL.Path, Query: req.URL.RawQuery}
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		rec.Body = string(data)
	}
	f.requests = append(f.requests, rec)

	i := len(f.requests) - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i](req)
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func reply(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header: http.Header{
				"Content-Type":      []string{"application/json"},
				"X-Elastic-Product": []string{"Elasticsearch"},
			},
			Body:    io.NopCloser(strings.NewReader(body)),
			Request: req,
		}, nil
	}
}

func fail(err error) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) { return nil, err }
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:9200: connect: connection refused")

func newTestStore(t *testing.T, responses ...func(*http.Request) (*http.Response, error)) (*Store, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{responses: responses}
	s, err := New(Config{
		Addrs:          []string{"http://localhost:9200"},
		RequestTimeout: time.Second,
		MaxAttempts:    3,
		RetryMin:       time.Millisecond,
		RetryMax:       5 * time.Millisecond,
		Transport:      ft,
	})
	require.NoError(t, err)
	return s, ft
}

const searchOK = `{
  "took": 7,
  "timed_out": false,
  "hits": {
    "total": {"value": 42, "relation": "eq"},
    "max_score": 3.5,
    "hits": [
      {"_index": "properties", "_id": "p1", "_score": 3.5,
       "_source": {"listing_id": "p1", "price": 750000},
       "highlight": {"description": ["a <em>modern</em> home"]}},
      {"_index": "properties", "_id": "p2", "_score": null,
       "_source": {"listing_id": "p2"}, "sort": [1.25]}
    ]
  },
  "aggregations": {"avg_price": {"value": 612500.5}}
}`
