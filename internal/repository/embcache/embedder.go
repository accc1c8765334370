// Package embcache memoizes embeddings in a key-value store keyed by content hash.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/db"
	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// Cache kinds, used as the metric label and key namespace.
const (
	KindQuery    = "query"
	KindDocument = "document"
)

// DefaultPrefix namespaces cache keys when none is configured.
const DefaultPrefix = "estatesearch:emb:"

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Config scopes the cache. Model is part of every key so switching embedding models
// never serves vectors from another vector space.
type Config struct {
	Prefix string
	Model  string
	// Lookups counts hits and misses with labels "kind" and "result". Optional.
	Lookups *prometheus.CounterVec
	Logger  *zap.Logger
}

// CachedEmbedder decorates an embedder with a read-through cache.
type CachedEmbedder struct {
	inner   domain.Embedder
	store   store
	ns      string
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New creates a caching decorator around inner.
func New(inner domain.Embedder, s store, cfg Config) *CachedEmbedder {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ns := prefix
	if cfg.Model != "" {
		ns += cfg.Model + ":"
	}
	return &CachedEmbedder{inner: inner, store: s, ns: ns, lookups: cfg.Lookups, logger: logger}
}

// Embed returns the cached vector for text or embeds and stores it.
// A hit reports Cached and zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return c.through(ctx, KindQuery, c.key(KindQuery, digest(text)), text)
}

// EmbedDocument caches by (id, sha256(content)): an edited document misses, an
// unchanged one is never re-embedded.
func (c *CachedEmbedder) EmbedDocument(ctx context.Context, id, content string) (domain.EmbeddingResult, error) {
	return c.through(ctx, KindDocument, c.key(KindDocument, id+":"+digest(content)), content)
}

func (c *CachedEmbedder) key(kind, suffix string) string {
	return c.ns + kind + ":" + suffix
}

func (c *CachedEmbedder) through(ctx context.Context, kind, key, text string) (domain.EmbeddingResult, error) {
	if vec, ok := c.lookup(ctx, key); ok {
		c.count(kind, "hit")
		return domain.EmbeddingResult{Embedding: vec, Cached: true}, nil
	}
	c.count(kind, "miss")

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed %s: %w", kind, err)
	}
	if len(res.Embedding) > 0 {
		if err := c.store.Set(ctx, key, encodeVector(res.Embedding)); err != nil {
			c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

// lookup treats every cache failure as a miss.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Discarding cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) count(kind, result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(kind, result).Inc()
	}
}

func digest(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
