// Package relevance decides whether a Wikipedia article belongs in the real-estate corpus:
// it scores LLM location classifications, detects stale stored locations and picks the
// corrective action for each article.
package relevance

import "strings"

// LocationType is the kind of geographic entity an article is about.
// The vocabulary is open: classifiers may return types outside KnownLocationTypes.
type LocationType string

// Location types seen so far. Used for review metrics only, never for validation.
const (
	TypeCity         LocationType = "city"
	TypeTown         LocationType = "town"
	TypeNeighborhood LocationType = "neighborhood"
	TypeCounty       LocationType = "county"
	TypeState        LocationType = "state"
	TypePark         LocationType = "park"
	TypeLandmark     LocationType = "landmark"
	TypeSkiResort    LocationType = "ski_resort"
	TypeLake         LocationType = "lake"
	TypeMountain     LocationType = "mountain"
	TypeRegion       LocationType = "region"
	TypeUnknown      LocationType = "unknown"
)

// KnownLocationTypes is the reference set for IsKnown.
var KnownLocationTypes = map[LocationType]struct{}{
	TypeCity: {}, TypeTown: {}, TypeNeighborhood: {}, TypeCounty: {}, TypeState: {},
	TypePark: {}, TypeLandmark: {}, TypeSkiResort: {}, TypeLake: {}, TypeMountain: {},
	TypeRegion: {}, TypeUnknown: {},
}

// NormalizeLocationType lowercases and snake-cases free-form classifier output ("Ski Resort" -> "ski_resort").
func NormalizeLocationType(s string) LocationType {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' || r == '_' }), "_")
	if s == "" {
		return TypeUnknown
	}
	return LocationType(s)
}

// IsKnown reports whether t is in KnownLocationTypes.
func (t LocationType) IsKnown() bool {
	_, ok := KnownLocationTypes[t]
	return ok
}

// LocationClassification is the classifier's view of an article's primary geographic entity.
type LocationClassification struct {
	Name             string       `json:"name"`
	Type             LocationType `json:"type"`
	City             string       `json:"city"`
	County           string       `json:"county"`
	State            string       `json:"state"`
	Confidence       float64      `json:"confidence"`
	IsUtahCalifornia bool         `json:"is_utah_california"`
	ShouldFlag       bool         `json:"should_flag"`
	KeyTopics        []string     `json:"key_topics"`
	Reasoning        string       `json:"reasoning"`
}

// HasLocation reports whether the classifier identified any place at all.
func (c LocationClassification) HasLocation() bool {
	return strings.TrimSpace(c.Name) != "" || strings.TrimSpace(c.State) != "" || strings.TrimSpace(c.City) != ""
}

// Location projects the classification onto a location record.
func (c LocationClassification) Location() Location {
	city := c.City
	if city == "" && (c.Type == TypeCity || c.Type == TypeTown) {
		city = c.Name
	}
	return Location{
		Country: DefaultCountry,
		State:   CanonicalState(c.State),
		County:  strings.TrimSpace(c.County),
		City:    strings.TrimSpace(city),
		Type:    c.Type,
	}
}

// DefaultCountry is the country of every classified location.
const DefaultCountry = "USA"

// Location is a stored or extracted place. Empty strings mean unknown.
type Location struct {
	ID      int64        `json:"id,omitempty"`
	Country string       `json:"country"`
	State   string       `json:"state"`
	County  string       `json:"county"`
	City    string       `json:"city"`
	Type    LocationType `json:"type"`
}

// Key is the identity used for get-or-create: country, state, county, city and type, case-folded.
func (l Location) Key() string {
	return strings.Join([]string{
		norm(l.Country), norm(l.State), norm(l.County), norm(l.City), norm(string(l.Type)),
	}, "|")
}

// DetectMismatch reports whether an extracted location contradicts the stored one:
// states differ, cities differ, only one side has a city, or the county differs
// for the same state and city.
func DetectMismatch(stored, extracted Location) bool {
	ss, es := norm(CanonicalState(stored.State)), norm(CanonicalState(extracted.State))
	sc, ec := norm(stored.City), norm(extracted.City)

	switch {
	case ss != es:
		return true
	case (sc == "") != (ec == ""):
		return true
	case sc != ec:
		return true
	default:
		return norm(stored.County) != norm(extracted.County)
	}
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
