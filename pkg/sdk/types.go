package estatesearch

import (
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

// SearchMode controls the retrieval strategy.
type SearchMode = mode.Mode

// Search mode constants.
const (
	ModeText     = mode.Text
	ModeSemantic = mode.Semantic
	ModeHybrid   = mode.Hybrid
)

// WikipediaTarget selects which Wikipedia representation is searched.
type WikipediaTarget = request.Target

// Wikipedia targets.
const (
	TargetFull      = request.Full
	TargetChunks    = request.Chunks
	TargetSummaries = request.Summaries
)

// Filter sets.
type (
	PropertyFilters     = filter.Property
	WikipediaFilters    = filter.Wikipedia
	NeighborhoodFilters = filter.Neighborhood
	GeoRadius           = filter.GeoRadius
)

// Sort orders a property search.
type Sort = request.Sort

// Result types.
type (
	Property             = result.Property
	Wikipedia            = result.Wikipedia
	Neighborhood         = result.Neighborhood
	NeighborhoodStats    = result.Stats
	Aggregation          = result.Aggregation
	PropertyResults      = result.Response[result.Property]
	WikipediaResults     = result.Response[result.Wikipedia]
	NeighborhoodResults  = result.Response[result.Neighborhood]
	NeighborhoodOverview = result.NeighborhoodResponse
)

// PropertyQuery describes one property search. Zero values take defaults:
// hybrid mode, relevance ordering, 10 results.
type PropertyQuery struct {
	Query               string
	Mode                SearchMode
	Filters             PropertyFilters
	Sort                Sort
	Size                int
	Offset              int
	IncludeHighlights   bool
	IncludeAggregations bool
}

// WikipediaQuery describes one Wikipedia search. Zero values take defaults:
// text mode over full articles, 10 results.
type WikipediaQuery struct {
	Query             string
	Mode              SearchMode
	Target            WikipediaTarget
	Filters           WikipediaFilters
	Size              int
	Offset            int
	IncludeHighlights bool
}

// NeighborhoodQuery describes one neighborhood search.
type NeighborhoodQuery struct {
	Query  string
	Mode   SearchMode
	City   string
	State  string
	Size   int
	Offset int
	// WithStats adds listing statistics and related articles.
	WithStats bool
}
