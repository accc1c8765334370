package result

import (
	"encoding/json"

	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

// Entity types carried by Wikipedia results.
const (
	EntityArticle = "wikipedia_article"
	EntityChunk   = "wikipedia_chunk"
	EntitySummary = "wikipedia_summary"
)

// Aggregation types.
const (
	AggTerms  = "terms"
	AggRange  = "range"
	AggMetric = "metric"
)

// Item is one ranked hit: the typed document plus per-hit search metadata.
type Item[T any] struct {
	ID          string              `json:"id"`
	Score       float64             `json:"score"`
	Document    T                   `json:"document"`
	Highlights  map[string][]string `json:"highlights,omitempty"`
	DistanceKm  *float64            `json:"distance_km,omitempty"`
	Explanation json.RawMessage     `json:"explanation,omitempty"`
}

// Response is the normalized outcome of one entity search.
type Response[T any] struct {
	Results         []Item[T]      `json:"results"`
	TotalHits       int64          `json:"total_hits"`
	ExecutionTimeMS int64          `json:"execution_time_ms"`
	AppliedFilters  map[string]any `json:"applied_filters"`
	Aggregations    []Aggregation  `json:"aggregations,omitempty"`
}

// Aggregation is a named facet or metric over the matching set.
type Aggregation struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Buckets []Bucket `json:"buckets,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// Bucket is one facet value. From/To are set for range buckets only.
type Bucket struct {
	Key      string   `json:"key"`
	DocCount int64    `json:"doc_count"`
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
}

// Address is a property's postal address and coordinates.
type Address struct {
	Street   string     `json:"street"`
	City     string     `json:"city"`
	State    string     `json:"state"`
	ZipCode  string     `json:"zip_code"`
	Location *geo.Point `json:"location,omitempty"`
}

// Property is a listing as returned to callers.
type Property struct {
	ListingID      string   `json:"listing_id"`
	PropertyType   string   `json:"property_type"`
	Price          float64  `json:"price"`
	Bedrooms       int      `json:"bedrooms"`
	Bathrooms      float64  `json:"bathrooms"`
	SquareFeet     int      `json:"square_feet"`
	YearBuilt      int      `json:"year_built,omitempty"`
	LotSize        float64  `json:"lot_size,omitempty"`
	Address        Address  `json:"address"`
	NeighborhoodID string   `json:"neighborhood_id,omitempty"`
	Description    string   `json:"description"`
	Features       []string `json:"features"`
	Amenities      []string `json:"amenities"`
	ListingDate    string   `json:"listing_date,omitempty"`
	Status         string   `json:"status,omitempty"`
}

// Wikipedia is an article, chunk or summary, discriminated by EntityType.
type Wikipedia struct {
	EntityType     string     `json:"entity_type"`
	PageID         string     `json:"page_id"`
	Title          string     `json:"title"`
	URL            string     `json:"url,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Content        string     `json:"content,omitempty"`
	Categories     []string   `json:"categories,omitempty"`
	KeyTopics      []string   `json:"key_topics,omitempty"`
	City           string     `json:"city,omitempty"`
	County         string     `json:"county,omitempty"`
	State          string     `json:"state,omitempty"`
	RelevanceScore float64    `json:"relevance_score,omitempty"`
	ChunkIndex     *int       `json:"chunk_index,omitempty"`
	ChunkTotal     *int       `json:"chunk_total,omitempty"`
	Location       *geo.Point `json:"location,omitempty"`
}

// Neighborhood is a neighborhood-like Wikipedia article projected for area search.
type Neighborhood struct {
	ID         string     `json:"id"`
	DocID      string     `json:"doc_id,omitempty"`
	Name       string     `json:"name"`
	City       string     `json:"city"`
	County     string     `json:"county,omitempty"`
	State      string     `json:"state"`
	Summary    string     `json:"summary"`
	Categories []string   `json:"categories,omitempty"`
	KeyTopics  []string   `json:"key_topics,omitempty"`
	Location   *geo.Point `json:"location,omitempty"`
}

// Stats aggregates the property listings of an area.
type Stats struct {
	PropertyCount int64            `json:"property_count"`
	AvgPrice      float64          `json:"avg_price"`
	AvgBedrooms   float64          `json:"avg_bedrooms"`
	AvgSquareFeet float64          `json:"avg_square_feet"`
	PropertyTypes map[string]int64 `json:"property_types"`
}

// NeighborhoodResponse is a neighborhood search enriched with optional statistics
// and related articles. Both are nil when their lookup failed.
type NeighborhoodResponse struct {
	Response[Neighborhood]
	Statistics      *Stats                 `json:"statistics"`
	RelatedArticles map[string][]Wikipedia `json:"related_articles,omitempty"`
}

// Find returns the aggregation with the given name.
func (r *Response[T]) Find(name string) (Aggregation, bool) {
	for _, a := range r.Aggregations {
		if a.Name == name {
			return a, true
		}
	}
	return Aggregation{}, false
}
