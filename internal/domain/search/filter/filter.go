package filter

import (
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/domain"
	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

// MaxValuesPerList caps multi-value filters such as property_types and categories.
const MaxValuesPerList = 32

// GeoRadius restricts results to a circle around a point.
type GeoRadius struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// Center returns the circle center.
func (g GeoRadius) Center() geo.Point { return geo.Point{Lat: g.Lat, Lon: g.Lon} }

func (g GeoRadius) validate() error {
	if !geo.ValidateCoordinates(g.Lat, g.Lon) {
		return domain.NewValidationError("geo", "coordinates (%g,%g) out of range", g.Lat, g.Lon)
	}
	if g.RadiusKm <= 0 {
		return domain.NewValidationError("geo.radius_km", "must be > 0, got %g", g.RadiusKm)
	}
	return nil
}

// Property is the structured filter set for property listings.
// Nil bounds and empty strings mean "not filtered".
type Property struct {
	MinPrice      *float64   `json:"min_price,omitempty"`
	MaxPrice      *float64   `json:"max_price,omitempty"`
	MinBedrooms   *int       `json:"min_bedrooms,omitempty"`
	MaxBedrooms   *int       `json:"max_bedrooms,omitempty"`
	MinBathrooms  *float64   `json:"min_bathrooms,omitempty"`
	MaxBathrooms  *float64   `json:"max_bathrooms,omitempty"`
	MinSquareFeet *int       `json:"min_square_feet,omitempty"`
	MaxSquareFeet *int       `json:"max_square_feet,omitempty"`
	PropertyTypes []string   `json:"property_types,omitempty"`
	Features      []string   `json:"features,omitempty"`
	City          string     `json:"city,omitempty"`
	State         string     `json:"state,omitempty"`
	ZipCode       string     `json:"zip_code,omitempty"`
	Geo           *GeoRadius `json:"geo,omitempty"`
}

// Validate enforces max >= min for every bound pair, non-negative bounds and a well-formed geo circle.
func (p Property) Validate() error {
	if err := checkRange("price", p.MinPrice, p.MaxPrice); err != nil {
		return err
	}
	if err := checkRange("bedrooms", p.MinBedrooms, p.MaxBedrooms); err != nil {
		return err
	}
	if err := checkRange("bathrooms", p.MinBathrooms, p.MaxBathrooms); err != nil {
		return err
	}
	if err := checkRange("square_feet", p.MinSquareFeet, p.MaxSquareFeet); err != nil {
		return err
	}
	if err := checkList("property_types", p.PropertyTypes); err != nil {
		return err
	}
	if err := checkList("features", p.Features); err != nil {
		return err
	}
	if p.Geo != nil {
		return p.Geo.validate()
	}
	return nil
}

// IsEmpty reports whether no filter is set.
func (p Property) IsEmpty() bool {
	return len(p.Applied()) == 0
}

// Applied echoes only the filters that are present, keyed by their request names.
func (p Property) Applied() map[string]any {
	out := map[string]any{}
	putPtr(out, "min_price", p.MinPrice)
	putPtr(out, "max_price", p.MaxPrice)
	putPtr(out, "min_bedrooms", p.MinBedrooms)
	putPtr(out, "max_bedrooms", p.MaxBedrooms)
	putPtr(out, "min_bathrooms", p.MinBathrooms)
	putPtr(out, "max_bathrooms", p.MaxBathrooms)
	putPtr(out, "min_square_feet", p.MinSquareFeet)
	putPtr(out, "max_square_feet", p.MaxSquareFeet)
	putList(out, "property_types", p.PropertyTypes)
	putList(out, "features", p.Features)
	putString(out, "city", p.City)
	putString(out, "state", p.State)
	putString(out, "zip_code", p.ZipCode)
	if p.Geo != nil {
		out["geo"] = *p.Geo
	}
	return out
}

// Wikipedia is the structured filter set for Wikipedia articles, chunks and summaries.
type Wikipedia struct {
	Categories   []string `json:"categories,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	MinRelevance *float64 `json:"min_relevance,omitempty"`
}

// Validate checks list sizes and the relevance bound.
func (w Wikipedia) Validate() error {
	if err := checkList("categories", w.Categories); err != nil {
		return err
	}
	if w.MinRelevance != nil && (*w.MinRelevance < 0 || *w.MinRelevance > 1) {
		return domain.NewValidationError("min_relevance", "must be between 0 and 1, got %g", *w.MinRelevance)
	}
	return nil
}

// Applied echoes only the filters that are present.
func (w Wikipedia) Applied() map[string]any {
	out := map[string]any{}
	putList(out, "categories", w.Categories)
	putString(out, "city", w.City)
	putString(out, "state", w.State)
	putPtr(out, "min_relevance", w.MinRelevance)
	return out
}

// Neighborhood is the structured filter set for neighborhood search.
type Neighborhood struct {
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// Validate is a no-op kept for symmetry with the other filter sets.
func (n Neighborhood) Validate() error { return nil }

// Applied echoes only the filters that are present.
func (n Neighborhood) Applied() map[string]any {
	out := map[string]any{}
	putString(out, "city", n.City)
	putString(out, "state", n.State)
	return out
}

type number interface {
	~int | ~float64
}

func checkRange[T number](name string, lo, hi *T) error {
	if lo != nil && *lo < 0 {
		return domain.NewValidationError("min_"+name, "must be >= 0, got %v", *lo)
	}
	if hi != nil && *hi < 0 {
		return domain.NewValidationError("max_"+name, "must be >= 0, got %v", *hi)
	}
	if lo != nil && hi != nil && *hi < *lo {
		return domain.NewValidationError("max_"+name, "must be >= min_%s (%v), got %v", name, *lo, *hi)
	}
	return nil
}

func checkList(name string, values []string) error {
	if len(values) > MaxValuesPerList {
		return domain.NewValidationError(name, "too many values (max %d)", MaxValuesPerList)
	}
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return domain.NewValidationError(name, "contains an empty value")
		}
	}
	return nil
}

func putPtr[T number](m map[string]any, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

func putList(m map[string]any, key string, v []string) {
	if len(v) > 0 {
		m[key] = v
	}
}

func putString(m map[string]any, key, v string) {
	if v != "" {
		m[key] = v
	}
}
