package estatesearch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Indices names the Elasticsearch indices (or patterns) per entity.
type Indices struct {
	Properties    string
	Wikipedia     string
	WikiChunks    string
	WikiSummaries string
}

func defaultIndices() Indices {
	return Indices{
		Properties:    "properties",
		Wikipedia:     "wikipedia",
		WikiChunks:    "wiki_chunks_*",
		WikiSummaries: "wiki_summaries_*",
	}
}

type clientConfig struct {
	addrs     []string
	username  string
	password  string
	apiKey    string
	transport http.RoundTripper

	maxAttempts int
	retryMin    time.Duration
	retryMax    time.Duration

	indices      Indices
	textWeight   float64
	vectorWeight float64
	fuzziness    string
	related      int

	embedder Embedder

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the cluster addresses.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithBasicAuth authenticates with a username and password.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithAPIKey authenticates with an Elasticsearch API key.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithTransport overrides the HTTP transport used to reach Elasticsearch.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithRetry sets the attempt budget and backoff window for transient failures.
// Defaults: 3 attempts, 2s doubling up to 10s.
func WithRetry(attempts int, minWait, maxWait time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxAttempts = attempts
		c.retryMin = minWait
		c.retryMax = maxWait
	})
}

// WithIndices overrides index names. Empty fields keep their defaults.
func WithIndices(idx Indices) Option {
	return optionFunc(func(c *clientConfig) {
		if idx.Properties != "" {
			c.indices.Properties = idx.Properties
		}
		if idx.Wikipedia != "" {
			c.indices.Wikipedia = idx.Wikipedia
		}
		if idx.WikiChunks != "" {
			c.indices.WikiChunks = idx.WikiChunks
		}
		if idx.WikiSummaries != "" {
			c.indices.WikiSummaries = idx.WikiSummaries
		}
	})
}

// WithHybridWeights sets the text and vector boosts of hybrid search. Default: 0.5 each.
func WithHybridWeights(text, vector float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.textWeight = text
		c.vectorWeight = vector
	})
}

// WithFuzziness sets text match fuzziness ("AUTO" or "" to disable). Default: "AUTO".
func WithFuzziness(f string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fuzziness = f
	})
}

// WithRelatedArticles sets how many related articles neighborhood overviews attach. Default: 3.
func WithRelatedArticles(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.related = n
	})
}

// WithEmbedder sets the query embedding provider.
// Required for semantic and hybrid search.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
