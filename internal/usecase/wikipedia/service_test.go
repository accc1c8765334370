package wikipedia

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

type mockRepo struct {
	searchFn func(req *request.Wikipedia, vector []float32) (*result.Response[result.Wikipedia], error)
}

func (m *mockRepo) Search(
	_ context.Context, req *request.Wikipedia, vector []float32,
) (*result.Response[result.Wikipedia], error) {
	return m.searchFn(req, vector)
}

type mockEmbedder struct {
	calls int
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: []float32{0.5}}, nil
}

func capture(got **request.Wikipedia) *mockRepo {
	return &mockRepo{searchFn: func(req *request.Wikipedia, _ []float32) (*result.Response[result.Wikipedia], error) {
		*got = req
		return &result.Response[result.Wikipedia]{Results: []result.Item[result.Wikipedia]{}}, nil
	}}
}

func TestSearchChunks(t *testing.T) {
	var got *request.Wikipedia
	emb := &mockEmbedder{}
	svc := New(capture(&got), emb)

	_, err := svc.SearchChunks(context.Background(), "ski resorts near Park City", 5)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, request.Chunks, got.Target())
	assert.Equal(t, mode.Text, got.Mode())
	assert.Equal(t, 5, got.Size())
	assert.Zero(t, emb.calls)
}

func TestSearchSummaries(t *testing.T) {
	var got *request.Wikipedia
	svc := New(capture(&got), &mockEmbedder{})

	_, err := svc.SearchSummaries(context.Background(), "history", 0)
	require.NoError(t, err)
	assert.Equal(t, request.Summaries, got.Target())
	assert.Equal(t, request.DefaultSize, got.Size())
}

func TestSearch_SemanticEmbeds(t *testing.T) {
	emb := &mockEmbedder{}
	svc := New(&mockRepo{searchFn: func(_ *request.Wikipedia, vector []float32) (*result.Response[result.Wikipedia], error) {
		assert.Equal(t, []float32{0.5}, vector)
		return &result.Response[result.Wikipedia]{}, nil
	}}, emb)

	req, err := request.NewWikipedia(request.WikipediaParams{Query: "lakes", Mode: mode.Semantic})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), &req)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls)
}

func TestSearchByCategory(t *testing.T) {
	var got *request.Wikipedia
	svc := New(capture(&got), &mockEmbedder{})

	_, err := svc.SearchByCategory(context.Background(), []string{"parks", "lakes"}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"parks", "lakes"}, got.Filters().Categories)
	assert.Equal(t, request.Full, got.Target())
	assert.Empty(t, got.Query())

	_, err = svc.SearchByCategory(context.Background(), nil, 10)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSearchByLocation(t *testing.T) {
	var got *request.Wikipedia
	svc := New(capture(&got), &mockEmbedder{})

	_, err := svc.SearchByLocation(context.Background(), "Provo", "Utah", 3)
	require.NoError(t, err)
	assert.Equal(t, "Provo", got.Filters().City)
	assert.Equal(t, "Utah", got.Filters().State)
}

func TestSearchText_InvalidTarget(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{})
	_, err := svc.SearchText(context.Background(), "x", request.Target("pages"), 10)
	require.ErrorIs(t, err, domain.ErrValidation)
}
