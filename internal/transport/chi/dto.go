package chi

import (
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/request"
)

type propertySearchBody struct {
	Query               string          `json:"query"`
	SearchType          string          `json:"search_type,omitempty"`
	Filters             filter.Property `json:"filters"`
	SortBy              string          `json:"sort_by,omitempty"`
	SortOrder           string          `json:"sort_order,omitempty"`
	Size                int             `json:"size,omitempty"`
	From                int             `json:"from,omitempty"`
	IncludeHighlights   bool            `json:"include_highlights,omitempty"`
	IncludeAggregations bool            `json:"include_aggregations,omitempty"`
	Explain             bool            `json:"explain,omitempty"`
}

func (b propertySearchBody) toRequest() (request.Property, error) {
	sort, err := request.ParseSort(b.SortBy, b.SortOrder)
	if err != nil {
		return request.Property{}, err
	}
	return request.NewProperty(request.PropertyParams{
		Query:   b.Query,
		Mode:    parseMode(b.SearchType),
		Filters: b.Filters,
		Sort:    sort,
		Size:    b.Size,
		Offset:  b.From,
		Options: request.Options{
			IncludeHighlights:   b.IncludeHighlights,
			IncludeAggregations: b.IncludeAggregations,
			Explain:             b.Explain,
		},
	})
}

type wikipediaSearchBody struct {
	Query             string           `json:"query"`
	SearchType        string           `json:"search_type,omitempty"`
	SearchIn          string           `json:"search_in,omitempty"`
	Filters           filter.Wikipedia `json:"filters"`
	Size              int              `json:"size,omitempty"`
	From              int              `json:"from,omitempty"`
	IncludeHighlights bool             `json:"include_highlights,omitempty"`
	Explain           bool             `json:"explain,omitempty"`
}

func (b wikipediaSearchBody) toRequest() (request.Wikipedia, error) {
	return request.NewWikipedia(request.WikipediaParams{
		Query:   b.Query,
		Mode:    parseMode(b.SearchType),
		Filters: b.Filters,
		Target:  request.Target(b.SearchIn),
		Size:    b.Size,
		Offset:  b.From,
		Options: request.Options{IncludeHighlights: b.IncludeHighlights, Explain: b.Explain},
	})
}

type neighborhoodSearchBody struct {
	Query             string `json:"query"`
	SearchType        string `json:"search_type,omitempty"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	Size              int    `json:"size,omitempty"`
	From              int    `json:"from,omitempty"`
	IncludeStatistics bool   `json:"include_statistics,omitempty"`
	IncludeHighlights bool   `json:"include_highlights,omitempty"`
}

func (b neighborhoodSearchBody) toRequest() (request.Neighborhood, error) {
	return request.NewNeighborhood(request.NeighborhoodParams{
		Query:   b.Query,
		Mode:    parseMode(b.SearchType),
		Filters: filter.Neighborhood{City: b.City, State: b.State},
		Size:    b.Size,
		Offset:  b.From,
		Options: request.Options{IncludeHighlights: b.IncludeHighlights},
	})
}

// parseMode normalizes case; unknown values pass through and are rejected by the request constructors.
func parseMode(s string) mode.Mode {
	m, _ := mode.Parse(s, "")
	return m
}
