package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/config"
	"github.com/kailas-cloud/estatesearch/internal/db"
	dbBadger "github.com/kailas-cloud/estatesearch/internal/db/badger"
	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	dbRedis "github.com/kailas-cloud/estatesearch/internal/db/redis"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/metrics"
	"github.com/kailas-cloud/estatesearch/internal/repository/embcache"
	propertyrepo "github.com/kailas-cloud/estatesearch/internal/repository/property"
	wikipediarepo "github.com/kailas-cloud/estatesearch/internal/repository/wikipedia"
	openaiTransport "github.com/kailas-cloud/estatesearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/estatesearch/internal/usecase/embedding"
	neighborhooduc "github.com/kailas-cloud/estatesearch/internal/usecase/neighborhood"
	propertyuc "github.com/kailas-cloud/estatesearch/internal/usecase/property"
	wikipediauc "github.com/kailas-cloud/estatesearch/internal/usecase/wikipedia"
)

// searchStack is the composition root shared by serve and search.
type searchStack struct {
	es            *elastic.Store
	embedder      *embedders
	properties    *propertyuc.Service
	wikipedia     *wikipediauc.Service
	neighborhoods *neighborhooduc.Service
}

func (a *app) buildSearchStack() (*searchStack, func(), error) {
	metrics.Register()

	es, err := elastic.New(elastic.Config{
		Addrs:          a.cfg.Elasticsearch.Addrs,
		Username:       a.cfg.Elasticsearch.Username,
		Password:       a.cfg.Elasticsearch.Password,
		APIKey:         a.cfg.Elasticsearch.APIKey,
		RequestTimeout: a.cfg.Elasticsearch.RequestTimeout(),
		MaxAttempts:    a.cfg.Elasticsearch.MaxAttempts,
		RetryMin:       a.cfg.Elasticsearch.RetryMin(),
		RetryMax:       a.cfg.Elasticsearch.RetryMax(),
		Logger:         a.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("elasticsearch: %w", err)
	}

	emb, closeEmb, err := buildEmbedders(a.cfg.Embedding, a.logger)
	if err != nil {
		return nil, nil, err
	}

	s := a.cfg.Search
	props := propertyrepo.New(es, propertyrepo.Config{
		Index:               a.cfg.Indices.Properties,
		Fuzziness:           s.Fuzziness,
		TextWeight:          s.TextWeight,
		VectorWeight:        s.VectorWeight,
		NumCandidatesFactor: s.NumCandidatesFactor,
		PreTag:              s.HighlightPreTag,
		PostTag:             s.HighlightPostTag,
	})
	wiki := wikipediarepo.New(es, wikipediarepo.Config{
		ArticlesIndex:          a.cfg.Indices.Wikipedia,
		ChunksIndex:            a.cfg.Indices.WikiChunks,
		SummariesIndex:         a.cfg.Indices.WikiSummaries,
		Fuzziness:              s.Fuzziness,
		TextWeight:             s.TextWeight,
		VectorWeight:           s.VectorWeight,
		NumCandidatesFactor:    s.NumCandidatesFactor,
		PreTag:                 s.HighlightPreTag,
		PostTag:                s.HighlightPostTag,
		NeighborhoodCategories: s.NeighborhoodCategories,
	})

	return &searchStack{
		es:            es,
		embedder:      emb,
		properties:    propertyuc.New(props, emb.query),
		wikipedia:     wikipediauc.New(wiki, emb.query),
		neighborhoods: neighborhooduc.New(wiki, props, emb.query, s.RelatedArticles),
	}, closeEmb, nil
}

// documentEmbedder embeds stored content keyed by document id.
type documentEmbedder interface {
	EmbedDocument(ctx context.Context, id, content string) (domain.EmbeddingResult, error)
}

// embedders exposes the decorated chain: provider -> cache -> instrumented -> query instruction.
type embedders struct {
	query    domain.Embedder
	base     *embeddinguc.InstrumentedEmbedder
	document documentEmbedder
}

func buildEmbedders(cfg config.EmbeddingConfig, logger *zap.Logger) (*embedders, func(), error) {
	provider := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	kv, closeKV, err := openCache(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	out := &embedders{}
	var inner domain.Embedder = provider
	if kv != nil {
		cached := embcache.New(provider, kv, embcache.Config{
			Prefix:  cfg.Cache.KeyPrefix,
			Model:   provider.Model(),
			Lookups: metrics.EmbeddingCacheTotal,
			Logger:  logger,
		})
		inner = cached
		out.document = cached
	}

	out.base = embeddinguc.NewInstrumentedEmbedder(inner, provider.Provider(), provider.Model(), cfg.BatchSize, logger)
	out.query = domain.NewQueryEmbedder(out.base, cfg.QueryInstruction)

	logger.Info("Embedders created",
		zap.String("provider", provider.Provider()),
		zap.String("model", provider.Model()),
		zap.Int("dimensions", cfg.Dimensions),
		zap.String("cache", cfg.Cache.Driver),
	)
	return out, closeKV, nil
}

// openCache returns a nil store for the "none" driver.
func openCache(cfg config.CacheConfig) (db.KVStore, func(), error) {
	switch cfg.Driver {
	case "badger":
		s, err := dbBadger.Open(dbBadger.Config{Path: cfg.Path})
		if err != nil {
			return nil, nil, fmt.Errorf("embedding cache: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.RedisAddrs, Password: cfg.Password})
		if err != nil {
			return nil, nil, fmt.Errorf("embedding cache: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, func() {}, nil
	}
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
