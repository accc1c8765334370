package wikipedia

import (
	"github.com/kailas-cloud/estatesearch/internal/db/esquery"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// fieldEmbedding is the dense_vector field shared by all Wikipedia indices.
const fieldEmbedding = "embedding"

// target describes one physical Wikipedia corpus.
type target struct {
	entity     string
	fields     []esquery.FieldBoost
	highlights []esquery.HighlightField
	// excludes are large source fields never returned to callers.
	excludes []string
}

var targets = map[request.Target]target{
	request.Full: {
		entity: result.EntityArticle,
		fields: []esquery.FieldBoost{
			{Field: "title", Boost: 3},
			{Field: "short_summary", Boost: 2.5},
			{Field: "long_summary", Boost: 2},
			{Field: "full_content", Boost: 1.5},
		},
		highlights: []esquery.HighlightField{
			{Name: "title", Fragments: 0},
			{Name: "short_summary", FragmentSize: 200, Fragments: 1},
			{Name: "full_content", FragmentSize: 150, Fragments: 3},
		},
		excludes: []string{fieldEmbedding, "full_content"},
	},
	request.Chunks: {
		entity: result.EntityChunk,
		fields: []esquery.FieldBoost{
			{Field: "content", Boost: 3},
			{Field: "title", Boost: 1.5},
		},
		highlights: []esquery.HighlightField{
			{Name: "content", FragmentSize: 200, Fragments: 2},
		},
		excludes: []string{fieldEmbedding},
	},
	request.Summaries: {
		entity: result.EntitySummary,
		fields: []esquery.FieldBoost{
			{Field: "summary", Boost: 3},
			{Field: "title", Boost: 2},
			{Field: "key_topics", Boost: 1.5},
		},
		highlights: []esquery.HighlightField{
			{Name: "summary", FragmentSize: 200, Fragments: 2},
		},
		excludes: []string{fieldEmbedding},
	},
}

// Index resolves the index or wildcard pattern a target searches.
func (r *Repo) Index(t request.Target) string {
	switch t {
	case request.Chunks:
		return r.cfg.ChunksIndex
	case request.Summaries:
		return r.cfg.SummariesIndex
	default:
		return r.cfg.ArticlesIndex
	}
}
