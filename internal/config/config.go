package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the estatesearch configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Indices       IndicesConfig       `yaml:"indices"`
	Search        SearchConfig        `yaml:"search"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	LLM           LLMConfig           `yaml:"llm"`
	Relevance     RelevanceConfig     `yaml:"relevance"`
	Database      DatabaseConfig      `yaml:"database"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	// APIKeys enables Bearer authentication on /api routes. Empty disables it.
	APIKeys []string `yaml:"api_keys"`
}

// ElasticsearchConfig holds search backend connection and retry settings.
type ElasticsearchConfig struct {
	Addrs             []string `yaml:"addrs"`
	Username          string   `yaml:"username"`
	Password          string   `yaml:"password"`
	APIKey            string   `yaml:"api_key"`
	RequestTimeoutSec int      `yaml:"request_timeout_sec"`
	MaxAttempts       int      `yaml:"max_attempts"`
	RetryMinMS        int      `yaml:"retry_min_ms"`
	RetryMaxMS        int      `yaml:"retry_max_ms"`
}

// RequestTimeout returns the per-attempt timeout.
func (c ElasticsearchConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// RetryMin returns the first backoff wait.
func (c ElasticsearchConfig) RetryMin() time.Duration {
	return time.Duration(c.RetryMinMS) * time.Millisecond
}

// RetryMax returns the backoff ceiling.
func (c ElasticsearchConfig) RetryMax() time.Duration {
	return time.Duration(c.RetryMaxMS) * time.Millisecond
}

// IndicesConfig names the indices (or index patterns) per entity.
type IndicesConfig struct {
	Properties    string `yaml:"properties"`
	Wikipedia     string `yaml:"wikipedia"`
	WikiChunks    string `yaml:"wiki_chunks"`
	WikiSummaries string `yaml:"wiki_summaries"`
}

// SearchConfig holds query construction settings.
type SearchConfig struct {
	Fuzziness              string   `yaml:"fuzziness"` // "AUTO" or empty to disable
	TextWeight             float64  `yaml:"text_weight"`
	VectorWeight           float64  `yaml:"vector_weight"`
	NumCandidatesFactor    int      `yaml:"num_candidates_factor"`
	HighlightPreTag        string   `yaml:"highlight_pre_tag"`
	HighlightPostTag       string   `yaml:"highlight_post_tag"`
	NeighborhoodCategories []string `yaml:"neighborhood_categories"`
	RelatedArticles        int      `yaml:"related_articles"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider         string      `yaml:"provider"` // openai, voyage, gemini, ollama
	APIKey           string      `yaml:"api_key"`
	BaseURL          string      `yaml:"base_url"`
	Model            string      `yaml:"model"`
	Dimensions       int         `yaml:"dimensions"`
	BatchSize        int         `yaml:"batch_size"`
	QueryInstruction string      `yaml:"query_instruction"`
	Cache            CacheConfig `yaml:"cache"`
}

// CacheConfig selects the embedding cache backend.
type CacheConfig struct {
	Driver     string   `yaml:"driver"` // badger, redis, none (default: badger)
	Path       string   `yaml:"path"`
	RedisAddrs []string `yaml:"redis_addrs"`
	Password   string   `yaml:"password"`
	KeyPrefix  string   `yaml:"key_prefix"`
}

// LLMConfig holds the location classifier settings.
type LLMConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	MaxExcerptChars int           `yaml:"max_excerpt_chars"`
	Breaker         BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the LLM client.
type BreakerConfig struct {
	MaxRequests         uint32 `yaml:"max_requests"`
	IntervalSec         int    `yaml:"interval_sec"`
	TimeoutSec          int    `yaml:"timeout_sec"`
	ConsecutiveFailures uint32 `yaml:"consecutive_failures"`
}

// RelevanceConfig holds the Wikipedia relevance scoring settings.
type RelevanceConfig struct {
	AllowedStates       []string `yaml:"allowed_states"`
	TargetCounties      []string `yaml:"target_counties"`
	TargetCities        []string `yaml:"target_cities"`
	RealEstateKeywords  []string `yaml:"real_estate_keywords"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	RemovalConfidence   float64  `yaml:"removal_confidence"`
	MinScore            float64  `yaml:"min_score"`
	BatchSize           int      `yaml:"batch_size"`
	// LLMWeights and KeywordWeights override the scorer's built-in blends when set.
	LLMWeights     *WeightsConfig `yaml:"llm_weights"`
	KeywordWeights *WeightsConfig `yaml:"keyword_weights"`
}

// WeightsConfig blends the three relevance sub-scores into the overall score.
type WeightsConfig struct {
	Location   float64 `yaml:"location"`
	RealEstate float64 `yaml:"real_estate"`
	Geographic float64 `yaml:"geographic"`
}

func (w *WeightsConfig) validate(key string) error {
	if w == nil {
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"location", w.Location},
		{"real_estate", w.RealEstate},
		{"geographic", w.Geographic},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("relevance.%s.%s must be between 0 and 1, got %v", key, f.name, f.v)
		}
	}
	return nil
}

// DatabaseConfig holds relational database settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// KafkaConfig holds decision event publishing settings. Empty brokers disables publishing.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expanding ${VAR} references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	es := &c.Elasticsearch
	if es.RequestTimeoutSec <= 0 {
		es.RequestTimeoutSec = 30
	}
	if es.MaxAttempts <= 0 {
		es.MaxAttempts = 3
	}
	if es.RetryMinMS <= 0 {
		es.RetryMinMS = 2000
	}
	if es.RetryMaxMS <= 0 {
		es.RetryMaxMS = 10000
	}

	if c.Indices.Properties == "" {
		c.Indices.Properties = "properties"
	}
	if c.Indices.Wikipedia == "" {
		c.Indices.Wikipedia = "wikipedia"
	}
	if c.Indices.WikiChunks == "" {
		c.Indices.WikiChunks = "wiki_chunks_*"
	}
	if c.Indices.WikiSummaries == "" {
		c.Indices.WikiSummaries = "wiki_summaries_*"
	}

	s := &c.Search
	if s.TextWeight == 0 && s.VectorWeight == 0 {
		s.TextWeight, s.VectorWeight = 0.5, 0.5
	}
	if s.NumCandidatesFactor <= 0 {
		s.NumCandidatesFactor = 10
	}
	if s.HighlightPreTag == "" {
		s.HighlightPreTag = "<em>"
	}
	if s.HighlightPostTag == "" {
		s.HighlightPostTag = "</em>"
	}
	if len(s.NeighborhoodCategories) == 0 {
		s.NeighborhoodCategories = []string{"neighborhoods", "districts", "communities"}
	}
	if s.RelatedArticles <= 0 {
		s.RelatedArticles = 3
	}

	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Dimensions <= 0 {
		e.Dimensions = 1024
	}
	if e.BatchSize <= 0 {
		e.BatchSize = 10
	}
	if e.Cache.Driver == "" {
		e.Cache.Driver = "badger"
	}
	if e.Cache.Path == "" {
		e.Cache.Path = "data/embedding-cache"
	}
	if e.Cache.KeyPrefix == "" {
		e.Cache.KeyPrefix = "estatesearch:emb:"
	}

	l := &c.LLM
	if l.Model == "" {
		l.Model = "gpt-4o-mini"
	}
	if l.MaxExcerptChars <= 0 {
		l.MaxExcerptChars = 2000
	}
	if l.Breaker.MaxRequests == 0 {
		l.Breaker.MaxRequests = 1
	}
	if l.Breaker.IntervalSec <= 0 {
		l.Breaker.IntervalSec = 60
	}
	if l.Breaker.TimeoutSec <= 0 {
		l.Breaker.TimeoutSec = 30
	}
	if l.Breaker.ConsecutiveFailures == 0 {
		l.Breaker.ConsecutiveFailures = 5
	}

	r := &c.Relevance
	if len(r.AllowedStates) == 0 {
		r.AllowedStates = []string{"Utah", "California"}
	}
	if r.ConfidenceThreshold <= 0 {
		r.ConfidenceThreshold = 0.7
	}
	if r.RemovalConfidence <= 0 {
		r.RemovalConfidence = 0.1
	}
	if r.MinScore <= 0 {
		r.MinScore = 0.5
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 50
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "estatesearch.relevance.decisions"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Elasticsearch.Addrs) == 0 {
		return fmt.Errorf("elasticsearch.addrs is required")
	}
	if c.Elasticsearch.RetryMaxMS < c.Elasticsearch.RetryMinMS {
		return fmt.Errorf("elasticsearch.retry_max_ms must be >= retry_min_ms")
	}
	if w := c.Search.TextWeight; w < 0 || w > 1 {
		return fmt.Errorf("search.text_weight must be between 0 and 1, got %v", w)
	}
	if w := c.Search.VectorWeight; w < 0 || w > 1 {
		return fmt.Errorf("search.vector_weight must be between 0 and 1, got %v", w)
	}
	switch c.Search.Fuzziness {
	case "", "AUTO":
	default:
		return fmt.Errorf("search.fuzziness must be \"AUTO\" or empty, got %q", c.Search.Fuzziness)
	}
	switch c.Embedding.Provider {
	case "openai", "voyage", "gemini", "ollama":
	default:
		return fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider)
	}
	switch c.Embedding.Cache.Driver {
	case "badger", "none":
	case "redis":
		if len(c.Embedding.Cache.RedisAddrs) == 0 {
			return fmt.Errorf("embedding.cache.redis_addrs is required for redis driver")
		}
	default:
		return fmt.Errorf("embedding.cache.driver must be badger, redis or none, got %q", c.Embedding.Cache.Driver)
	}
	if t := c.Relevance.ConfidenceThreshold; t > 1 {
		return fmt.Errorf("relevance.confidence_threshold must be <= 1, got %v", t)
	}
	if err := c.Relevance.LLMWeights.validate("llm_weights"); err != nil {
		return err
	}
	return c.Relevance.KeywordWeights.validate("keyword_weights")
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
