// Package esresult turns raw search hits into typed values. Every accessor degrades
// to a zero value on missing or malformed fields so partial documents never fail a search.
package esresult

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/estatesearch/internal/domain/geo"
)

// Source is a decoded _source document addressed by dotted paths ("address.city").
type Source map[string]any

// ParseSource decodes raw JSON. Malformed input yields an empty Source.
func ParseSource(raw json.RawMessage) Source {
	var m map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return Source{}
	}
	return m
}

func (s Source) lookup(path string) (any, bool) {
	if v, ok := s[path]; ok {
		return v, v != nil
	}
	var cur any = map[string]any(s)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// Has reports whether path holds a non-null value.
func (s Source) Has(path string) bool {
	_, ok := s.lookup(path)
	return ok
}

// String returns a string field; numbers and booleans are formatted.
func (s Source) String(path string) string {
	v, ok := s.lookup(path)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Float returns a numeric field; numeric strings are parsed.
func (s Source) Float(path string) float64 {
	f, _ := s.float(path)
	return f
}

func (s Source) float(path string) (float64, bool) {
	v, ok := s.lookup(path)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns an integer field, truncating fractions.
func (s Source) Int(path string) int {
	return int(s.Float(path))
}

// IntPtr returns an integer field, or nil when absent or malformed.
func (s Source) IntPtr(path string) *int {
	f, ok := s.float(path)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// Strings returns a list of strings. A scalar string becomes a one-element list;
// non-string elements are skipped. Absent fields yield an empty, non-nil slice.
func (s Source) Strings(path string) []string {
	v, ok := s.lookup(path)
	if !ok {
		return []string{}
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if str, ok := e.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	default:
		return []string{}
	}
}

// GeoPoint reads a geo_point in any of its JSON forms: {"lat","lon"}, "lat,lon" or [lon, lat].
// Out-of-range coordinates yield nil.
func (s Source) GeoPoint(path string) *geo.Point {
	v, ok := s.lookup(path)
	if !ok {
		return nil
	}
	var p geo.Point
	switch t := v.(type) {
	case map[string]any:
		sub := Source(t)
		lat, okLat := sub.float("lat")
		lon, okLon := sub.float("lon")
		if !okLat || !okLon {
			return nil
		}
		p = geo.Point{Lat: lat, Lon: lon}
	case string:
		latS, lonS, found := strings.Cut(t, ",")
		if !found {
			return nil
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(latS), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
		if err1 != nil || err2 != nil {
			return nil
		}
		p = geo.Point{Lat: lat, Lon: lon}
	case []any:
		if len(t) != 2 {
			return nil
		}
		lon, ok1 := t[0].(float64)
		lat, ok2 := t[1].(float64)
		if !ok1 || !ok2 {
			return nil
		}
		p = geo.Point{Lat: lat, Lon: lon}
	default:
		return nil
	}
	if !p.Valid() {
		return nil
	}
	return &p
}

// Vector reads a dense_vector field. Any non-numeric element invalidates the whole vector.
func (s Source) Vector(path string) []float32 {
	v, ok := s.lookup(path)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	out := make([]float32, len(arr))
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return nil
		}
		out[i] = float32(f)
	}
	return out
}

// Highlights returns the per-field fragments, or nil when the hit carries none.
func Highlights(h map[string][]string) map[string][]string {
	if len(h) == 0 {
		return nil
	}
	return h
}

// DistanceKm reads the geo sort value of a distance-sorted hit.
func DistanceKm(sort []any) *float64 {
	if len(sort) == 0 {
		return nil
	}
	d, ok := sort[0].(float64)
	if !ok || d < 0 {
		return nil
	}
	return &d
}
