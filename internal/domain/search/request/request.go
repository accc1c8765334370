package request

import (
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/estatesearch/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultSize    = 10
	MaxSize        = 100
	// MaxWindow is the backend result window (from + size).
	MaxWindow = 10000
)

// Options toggles optional response sections.
type Options struct {
	IncludeHighlights   bool
	IncludeAggregations bool
	Explain             bool
}

// Page is a validated pagination window.
type Page struct {
	size   int
	offset int
}

// NewPage validates pagination. A zero size means DefaultSize.
func NewPage(size, offset int) (Page, error) {
	if size == 0 {
		size = DefaultSize
	}
	if size < 1 || size > MaxSize {
		return Page{}, domain.NewValidationError("size", "must be between 1 and %d, got %d", MaxSize, size)
	}
	if offset < 0 {
		return Page{}, domain.NewValidationError("from", "must be >= 0, got %d", offset)
	}
	if offset+size > MaxWindow {
		return Page{}, domain.NewValidationError("from", "from + size must not exceed %d", MaxWindow)
	}
	return Page{size: size, offset: offset}, nil
}

// Size returns the page size.
func (p Page) Size() int { return p.size }

// Offset returns the number of skipped results.
func (p Page) Offset() int { return p.offset }

// common holds the fields shared by every entity request.
type common struct {
	query   string
	mode    mode.Mode
	page    Page
	options Options
}

func newCommon(query string, m, def mode.Mode, size, offset int, opts Options) (common, error) {
	query = strings.TrimSpace(query)
	if len(query) > MaxQueryLength {
		return common{}, domain.NewValidationError("query", "too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = def
	}
	if !m.IsValid() {
		return common{}, domain.NewValidationError("search_type", "unknown mode %q", m)
	}
	if m.NeedsEmbedding() && query == "" {
		return common{}, domain.NewValidationError("query", "is required for %s search", m)
	}
	page, err := NewPage(size, offset)
	if err != nil {
		return common{}, err
	}
	return common{query: query, mode: m, page: page, options: opts}, nil
}

// Query returns the trimmed search text; empty means filter-only.
func (c *common) Query() string { return c.query }

// Mode returns the retrieval strategy.
func (c *common) Mode() mode.Mode { return c.mode }

// Size returns the page size.
func (c *common) Size() int { return c.page.size }

// Offset returns the pagination offset.
func (c *common) Offset() int { return c.page.offset }

// Options returns the response section toggles.
func (c *common) Options() Options { return c.options }

// PropertyParams are the raw inputs of a property search.
type PropertyParams struct {
	Query   string
	Mode    mode.Mode
	Filters filter.Property
	Sort    Sort
	Size    int
	Offset  int
	Options Options
}

// Property is a validated property search request.
type Property struct {
	common
	filters filter.Property
	sort    Sort
}

// NewProperty validates a property search. Mode defaults to hybrid.
func NewProperty(p PropertyParams) (Property, error) {
	c, err := newCommon(p.Query, p.Mode, mode.Hybrid, p.Size, p.Offset, p.Options)
	if err != nil {
		return Property{}, err
	}
	if err := p.Filters.Validate(); err != nil {
		return Property{}, err
	}
	s, err := p.Sort.normalize()
	if err != nil {
		return Property{}, err
	}
	return Property{common: c, filters: p.Filters, sort: s}, nil
}

// Filters returns the structured filters.
func (r *Property) Filters() filter.Property { return r.filters }

// Sort returns the requested ordering. A geo filter overrides it with distance ordering.
func (r *Property) Sort() Sort { return r.sort }

// WikipediaParams are the raw inputs of a Wikipedia search.
type WikipediaParams struct {
	Query   string
	Mode    mode.Mode
	Filters filter.Wikipedia
	Target  Target
	Size    int
	Offset  int
	Options Options
}

// Wikipedia is a validated Wikipedia search request.
type Wikipedia struct {
	common
	filters filter.Wikipedia
	target  Target
}

// NewWikipedia validates a Wikipedia search. Mode defaults to text, target to full articles.
func NewWikipedia(p WikipediaParams) (Wikipedia, error) {
	c, err := newCommon(p.Query, p.Mode, mode.Text, p.Size, p.Offset, p.Options)
	if err != nil {
		return Wikipedia{}, err
	}
	if err := p.Filters.Validate(); err != nil {
		return Wikipedia{}, err
	}
	target := p.Target
	if target == "" {
		target = Full
	}
	if !target.IsValid() {
		return Wikipedia{}, domain.NewValidationError("search_in", "unknown target %q", target)
	}
	return Wikipedia{common: c, filters: p.Filters, target: target}, nil
}

// Filters returns the structured filters.
func (r *Wikipedia) Filters() filter.Wikipedia { return r.filters }

// Target returns which Wikipedia representation is searched.
func (r *Wikipedia) Target() Target { return r.target }

// NeighborhoodParams are the raw inputs of a neighborhood search.
type NeighborhoodParams struct {
	Query   string
	Mode    mode.Mode
	Filters filter.Neighborhood
	Size    int
	Offset  int
	Options Options
}

// Neighborhood is a validated neighborhood search request.
type Neighborhood struct {
	common
	filters filter.Neighborhood
}

// NewNeighborhood validates a neighborhood search. Mode defaults to text.
func NewNeighborhood(p NeighborhoodParams) (Neighborhood, error) {
	c, err := newCommon(p.Query, p.Mode, mode.Text, p.Size, p.Offset, p.Options)
	if err != nil {
		return Neighborhood{}, err
	}
	return Neighborhood{common: c, filters: p.Filters}, nil
}

// Filters returns the structured filters.
func (r *Neighborhood) Filters() filter.Neighborhood { return r.filters }
