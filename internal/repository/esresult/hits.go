package esresult

import (
	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// Convert maps one hit to a typed document. Returning false drops the hit.
type Convert[T any] func(hit *elastic.Hit, src Source) (T, bool)

// Items converts hits in backend rank order, skipping hits the converter rejects.
// Explanations are attached only when explain is set.
func Items[T any](hits []elastic.Hit, explain bool, conv Convert[T]) []result.Item[T] {
	items := make([]result.Item[T], 0, len(hits))
	for i := range hits {
		h := &hits[i]
		doc, ok := conv(h, ParseSource(h.Source))
		if !ok {
			continue
		}
		item := result.Item[T]{
			ID:         h.ID,
			Score:      h.ScoreOrZero(),
			Document:   doc,
			Highlights: Highlights(h.Highlight),
		}
		if explain && len(h.Explanation) > 0 {
			item.Explanation = h.Explanation
		}
		items = append(items, item)
	}
	return items
}

// Limit keeps at most size items in rank order, whatever the backend returned.
func Limit[T any](items []result.Item[T], size int) []result.Item[T] {
	if size >= 0 && len(items) > size {
		return items[:size]
	}
	return items
}

// NewResponse wraps converted items with the response envelope.
func NewResponse[T any](resp *elastic.Response, items []result.Item[T], applied map[string]any) *result.Response[T] {
	if applied == nil {
		applied = map[string]any{}
	}
	total := resp.Hits.Total.Value
	if total < int64(len(items)) {
		total = int64(len(items))
	}
	return &result.Response[T]{
		Results:         items,
		TotalHits:       total,
		ExecutionTimeMS: resp.ExecutionTimeMS,
		AppliedFilters:  applied,
		Aggregations:    ParseAggregations(resp.Aggregations),
	}
}
