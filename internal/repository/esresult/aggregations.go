package esresult

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/kailas-cloud/estatesearch/internal/domain/search/result"
)

type rawAgg struct {
	Value   *float64        `json:"value"`
	Buckets json.RawMessage `json:"buckets"`
}

type rawBucket struct {
	Key         any      `json:"key"`
	KeyAsString string   `json:"key_as_string"`
	DocCount    *int64   `json:"doc_count"`
	From        *float64 `json:"from"`
	To          *float64 `json:"to"`
}

// ParseAggregations converts named backend aggregations into typed facets, ordered by name.
// Buckets with from/to bounds make a range facet, buckets with only doc_count a terms facet,
// and a bare value a metric. Unparseable aggregations are skipped.
func ParseAggregations(raw map[string]json.RawMessage) []result.Aggregation {
	if len(raw) == 0 {
		return nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]result.Aggregation, 0, len(raw))
	for _, name := range names {
		if agg, ok := parseAggregation(name, raw[name]); ok {
			out = append(out, agg)
		}
	}
	return out
}

// parseAggregation classifies one aggregation. Without buckets it is a metric. With buckets
// it is a range when any bucket carries from or to, otherwise terms. doc_count alone cannot
// tell them apart because range buckets carry it too.
func parseAggregation(name string, data json.RawMessage) (result.Aggregation, bool) {
	var ra rawAgg
	if err := json.Unmarshal(data, &ra); err != nil {
		return result.Aggregation{}, false
	}
	if len(ra.Buckets) == 0 {
		if ra.Value != nil {
			return result.Aggregation{Name: name, Type: result.AggMetric, Value: ra.Value}, true
		}
		// avg over an empty set comes back as {"value": null}
		return result.Aggregation{Name: name, Type: result.AggMetric}, true
	}

	var buckets []rawBucket
	if err := json.Unmarshal(ra.Buckets, &buckets); err != nil {
		return result.Aggregation{}, false
	}

	agg := result.Aggregation{Name: name, Type: result.AggTerms, Buckets: make([]result.Bucket, 0, len(buckets))}
	for _, b := range buckets {
		if b.From != nil || b.To != nil {
			agg.Type = result.AggRange
		}
		var count int64
		if b.DocCount != nil {
			count = *b.DocCount
		}
		agg.Buckets = append(agg.Buckets, result.Bucket{
			Key:      bucketKey(b),
			DocCount: count,
			From:     b.From,
			To:       b.To,
		})
	}
	return agg, true
}

func bucketKey(b rawBucket) string {
	if b.KeyAsString != "" {
		return b.KeyAsString
	}
	switch k := b.Key.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(k)
	default:
		return ""
	}
}

// Metric returns the value of a metric aggregation, or 0.
func Metric(aggs []result.Aggregation, name string) float64 {
	for _, a := range aggs {
		if a.Name == name && a.Value != nil {
			return *a.Value
		}
	}
	return 0
}

// Counts returns bucket key to doc_count for a terms aggregation.
func Counts(aggs []result.Aggregation, name string) map[string]int64 {
	out := map[string]int64{}
	for _, a := range aggs {
		if a.Name != name {
			continue
		}
		for _, b := range a.Buckets {
			out[b.Key] = b.DocCount
		}
	}
	return out
}
