package estatesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	propertyrepo "github.com/kailas-cloud/estatesearch/internal/repository/property"
	wikipediarepo "github.com/kailas-cloud/estatesearch/internal/repository/wikipedia"
	healthuc "github.com/kailas-cloud/estatesearch/internal/usecase/health"
	neighborhooduc "github.com/kailas-cloud/estatesearch/internal/usecase/neighborhood"
	propertyuc "github.com/kailas-cloud/estatesearch/internal/usecase/property"
	wikipediauc "github.com/kailas-cloud/estatesearch/internal/usecase/wikipedia"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for fakes in tests.
type propertyUseCase interface {
	Search(ctx context.Context, req *request.Property) (*result.Response[result.Property], error)
	SearchGeo(
		ctx context.Context, lat, lon, radiusKm float64, filters PropertyFilters, size int,
	) (*result.Response[result.Property], error)
	SearchSimilar(ctx context.Context, referenceID string, size int) (*result.Response[result.Property], error)
}

type wikipediaUseCase interface {
	Search(ctx context.Context, req *request.Wikipedia) (*result.Response[result.Wikipedia], error)
	SearchByCategory(ctx context.Context, categories []string, size int) (*result.Response[result.Wikipedia], error)
}

type neighborhoodUseCase interface {
	Search(ctx context.Context, req *request.Neighborhood) (*result.Response[result.Neighborhood], error)
	SearchWithStats(ctx context.Context, req *request.Neighborhood) (*result.NeighborhoodResponse, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the estatesearch SDK entry point.
type Client struct {
	store         pinger
	propertySvc   propertyUseCase
	wikipediaSvc  wikipediaUseCase
	neighborhoods neighborhoodUseCase
	healthSvc     healthUseCase
	obs           *observer
}

// New creates a Client and checks that Elasticsearch is reachable.
// The provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indices:      defaultIndices(),
		textWeight:   0.5,
		vectorWeight: 0.5,
		fuzziness:    "AUTO",
		related:      3,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("estatesearch: elasticsearch address required (use WithElasticsearch)")
	}

	store, err := elastic.New(elastic.Config{
		Addrs:       cfg.addrs,
		Username:    cfg.username,
		Password:    cfg.password,
		APIKey:      cfg.apiKey,
		Transport:   cfg.transport,
		MaxAttempts: cfg.maxAttempts,
		RetryMin:    cfg.retryMin,
		RetryMax:    cfg.retryMax,
		Logger:      cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("estatesearch: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, defaultReadinessTimeout)
	defer cancel()
	if err := store.Ping(readyCtx); err != nil {
		return nil, fmt.Errorf("estatesearch: elasticsearch not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

// wireStore is what wireClient needs from the search backend.
type wireStore interface {
	pinger
	Search(ctx context.Context, index string, body map[string]any) (*elastic.Response, error)
	Get(ctx context.Context, index, id string, includes ...string) (*elastic.Document, error)
	MultiSearch(ctx context.Context, queries []elastic.MultiQuery) ([]elastic.MultiResult, error)
}

func wireClient(store wireStore, cfg *clientConfig, obs *observer) *Client {
	// Without an embedder text search works and semantic search fails fast.
	var emb domain.Embedder = noopEmbedder{}
	var embChecker healthuc.EmbeddingChecker
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
		if hc, ok := cfg.embedder.(domain.HealthChecker); ok {
			embChecker = hc
		}
	}

	props := propertyrepo.New(store, propertyrepo.Config{
		Index:        cfg.indices.Properties,
		Fuzziness:    cfg.fuzziness,
		TextWeight:   cfg.textWeight,
		VectorWeight: cfg.vectorWeight,
		PreTag:       "<em>",
		PostTag:      "</em>",
	})
	wiki := wikipediarepo.New(store, wikipediarepo.Config{
		ArticlesIndex:  cfg.indices.Wikipedia,
		ChunksIndex:    cfg.indices.WikiChunks,
		SummariesIndex: cfg.indices.WikiSummaries,
		Fuzziness:      cfg.fuzziness,
		TextWeight:     cfg.textWeight,
		VectorWeight:   cfg.vectorWeight,
		PreTag:         "<em>",
		PostTag:        "</em>",
	})

	return &Client{
		store:         store,
		propertySvc:   propertyuc.New(props, emb),
		wikipediaSvc:  wikipediauc.New(wiki, emb),
		neighborhoods: neighborhooduc.New(wiki, props, emb, cfg.related),
		healthSvc:     healthuc.New(store, embChecker, nil),
		obs:           obs,
	}
}

// Ping checks Elasticsearch connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.call("cluster", "ping", start, -1, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Properties returns the property search service.
func (c *Client) Properties() *PropertyService {
	return &PropertyService{svc: c.propertySvc, obs: c.obs}
}

// Wikipedia returns the Wikipedia search service.
func (c *Client) Wikipedia() *WikipediaService {
	return &WikipediaService{svc: c.wikipediaSvc, obs: c.obs}
}

// Neighborhoods returns the neighborhood search service.
func (c *Client) Neighborhoods() *NeighborhoodService {
	return &NeighborhoodService{svc: c.neighborhoods, obs: c.obs}
}
