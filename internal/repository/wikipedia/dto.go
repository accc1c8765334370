package wikipedia

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
	"github.com/kailas-cloud/estatesearch/internal/logger"
	"github.com/kailas-cloud/estatesearch/internal/repository/esresult"
)

func pageID(h *elastic.Hit, src esresult.Source) string {
	if id := src.String("page_id"); id != "" {
		return id
	}
	return h.ID
}

func articleConverter(entity string) esresult.Convert[result.Wikipedia] {
	return func(h *elastic.Hit, src esresult.Source) (result.Wikipedia, bool) {
		w := result.Wikipedia{
			EntityType:     entity,
			PageID:         pageID(h, src),
			Title:          src.String("title"),
			URL:            src.String("url"),
			Categories:     src.Strings("categories"),
			KeyTopics:      src.Strings("key_topics"),
			City:           src.String("city"),
			County:         src.String("county"),
			State:          src.String("state"),
			RelevanceScore: src.Float("relevance_score"),
			Location:       src.GeoPoint("location"),
		}
		switch entity {
		case result.EntitySummary:
			w.Summary = src.String("summary")
		default:
			w.Summary = src.String("short_summary")
			if w.Summary == "" {
				w.Summary = src.String("long_summary")
			}
		}
		return w, true
	}
}

// chunkConverter drops chunks whose position is out of range for their article.
func chunkConverter(ctx context.Context) esresult.Convert[result.Wikipedia] {
	log := logger.FromContext(ctx)
	return func(h *elastic.Hit, src esresult.Source) (result.Wikipedia, bool) {
		idx, total := src.IntPtr("chunk_index"), src.IntPtr("chunk_total")
		if idx != nil && total != nil && (*idx < 0 || *idx >= *total) {
			log.Warn("dropping chunk with invalid position",
				zap.String("id", h.ID), zap.Int("chunk_index", *idx), zap.Int("chunk_total", *total))
			return result.Wikipedia{}, false
		}
		return result.Wikipedia{
			EntityType: result.EntityChunk,
			PageID:     pageID(h, src),
			Title:      src.String("title"),
			URL:        src.String("url"),
			Content:    src.String("content"),
			Categories: src.Strings("categories"),
			City:       src.String("city"),
			County:     src.String("county"),
			State:      src.String("state"),
			ChunkIndex: idx,
			ChunkTotal: total,
		}, true
	}
}

func toNeighborhood(h *elastic.Hit, src esresult.Source) (result.Neighborhood, bool) {
	summary := src.String("short_summary")
	if summary == "" {
		summary = src.String("long_summary")
	}
	return result.Neighborhood{
		ID:         pageID(h, src),
		DocID:      h.ID,
		Name:       src.String("title"),
		City:       src.String("city"),
		County:     src.String("county"),
		State:      src.String("state"),
		Summary:    summary,
		Categories: src.Strings("categories"),
		KeyTopics:  src.Strings("key_topics"),
		Location:   src.GeoPoint("location"),
	}, true
}

func filterFor(n result.Neighborhood) filter.Wikipedia {
	return filter.Wikipedia{City: n.City, State: n.State}
}
