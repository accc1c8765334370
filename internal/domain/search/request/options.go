package request

import (
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// SortBy is the ordering key of a property search.
type SortBy string

// Sort keys.
const (
	ByRelevance SortBy = "relevance"
	ByPrice     SortBy = "price"
	ByDate      SortBy = "date"
	ByBedrooms  SortBy = "bedrooms"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Sort is an ordering request. The zero value sorts by relevance, descending.
type Sort struct {
	By    SortBy
	Order Order
}

// ParseSort builds a Sort from raw strings (case-insensitive).
func ParseSort(by, order string) (Sort, error) {
	return Sort{
		By:    SortBy(strings.ToLower(strings.TrimSpace(by))),
		Order: Order(strings.ToLower(strings.TrimSpace(order))),
	}.normalize()
}

func (s Sort) normalize() (Sort, error) {
	if s.By == "" {
		s.By = ByRelevance
	}
	if s.Order == "" {
		s.Order = Desc
	}
	switch s.By {
	case ByRelevance, ByPrice, ByDate, ByBedrooms:
	default:
		return Sort{}, domain.NewValidationError("sort_by", "unknown sort key %q", s.By)
	}
	if s.Order != Asc && s.Order != Desc {
		return Sort{}, domain.NewValidationError("sort_order", "must be asc or desc, got %q", s.Order)
	}
	return s, nil
}

// Target selects which Wikipedia representation a search runs against.
type Target string

// Wikipedia search targets.
const (
	Full      Target = "full"
	Chunks    Target = "chunks"
	Summaries Target = "summaries"
)

// IsValid checks if the target is one of the supported values.
func (t Target) IsValid() bool {
	return t == Full || t == Chunks || t == Summaries
}
