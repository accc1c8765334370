package relevance

import (
	"context"

	domrel "github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

// Classifier extracts an article's primary location.
type Classifier interface {
	Classify(ctx context.Context, a domrel.Article) (domrel.LocationClassification, error)
}

// Store reads articles and applies pipeline outcomes.
type Store interface {
	ListArticles(ctx context.Context, limit, offset int) ([]domrel.Article, error)
	SaveFlagged(ctx context.Context, f domrel.Flagged) error
	GetOrCreateLocation(ctx context.Context, loc domrel.Location) (domrel.Location, error)
	UpdateArticleLocation(ctx context.Context, articleID string, locationID int64) error
	RemoveArticle(ctx context.Context, articleID string) error
}

// Publisher emits per-article decision events.
type Publisher interface {
	Publish(ctx context.Context, events ...domrel.Event) error
}
