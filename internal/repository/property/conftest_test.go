package property

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kailas-cloud/estatesearch/internal/db/elastic"
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	searchFn func(ctx context.Context, index string, body map[string]any) (*elastic.Response, error)
	getFn    func(ctx context.Context, index, id string, includes ...string) (*elastic.Document, error)

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

func (m *mockStore) Get(ctx context.Context, index, id string, includes ...string) (*elastic.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, index, id, includes...)
	}
	return &elastic.Document{ID: id, Found: true}, nil
}

func testConfig() Config {
	return Config{
		Index:               "properties",
		Fuzziness:           "AUTO",
		TextWeight:          0.5,
		VectorWeight:        0.5,
		NumCandidatesFactor: 10,
		PreTag:              "<em>",
		PostTag:             "</em>",
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

// dig walks nested query maps and fails the test on a missing key.
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

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
