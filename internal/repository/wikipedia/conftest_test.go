package wikipedia

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn      func(ctx context.Context, index string, body map[string]any) (*elastic.Response, error)
	multiSearchFn func(ctx context.Context, queries []elastic.MultiQuery) ([]elastic.MultiResult, error)

	lastIndex string
	lastBody  map[string]any
}

func (m *mockStore) Search(ctx context.Context, index string, body map[string]any) (*elastic.Response, error) {
	m.lastIndex, m.lastBody = index, body
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &elastic.Response{}, nil
}

func (m *mockStore) MultiSearch(ctx context.Context, queries []elastic.MultiQuery) ([]elastic.MultiResult, error) {
	if m.multiSearchFn != nil {
		return m.multiSearchFn(ctx, queries)
	}
	return make([]elastic.MultiResult, len(queries)), nil
}

func testConfig() Config {
	return Config{
		ArticlesIndex:          "wikipedia",
		ChunksIndex:            "wiki_chunks_*",
		SummariesIndex:         "wiki_summaries_*",
		Fuzziness:              "AUTO",
		TextWeight:             0.5,
		VectorWeight:           0.5,
		NumCandidatesFactor:    10,
		PreTag:                 "<em>",
		PostTag:                "</em>",
		NeighborhoodCategories: []string{"neighborhoods"},
	}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testConfig()), ms
}

func hit(id string, score float64, src string) elastic.Hit {
	return elastic.Hit{ID: id, Score: &score, Source: json.RawMessage(src)}
}

func hitsResponse(total int64, hits ...elastic.Hit) *elastic.Response {
	return &elastic.Response{Hits: elastic.Hits{Total: elastic.Total{Value: total, Relation: "eq"}, Hits: hits}}
}

func dig(t *testing.T, m esquery.Map, path ...string) any {
	t.Helper()
	var cur any = m
	for _, p := range path {
		mm, ok := cur.(esquery.Map)
		if !ok {
			t.Fatalf("path %v: %T is not an object at %q", path, cur, p)
		}
		if cur, ok = mm[p]; !ok {
			t.Fatalf("path %v: missing key %q", path, p)
		}
	}
	return cur
}
