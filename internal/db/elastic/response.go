package elastic

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a decoded _search response.
type Response struct {
	Took         int64                      `json:"took"`
	TimedOut     bool                       `json:"timed_out"`
	Hits         Hits                       `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`

	// ExecutionTimeMS is the client-measured wall time, retries included.
	ExecutionTimeMS int64 `json:"-"`
}

// Hits is the hits section of a search response.
type Hits struct {
	Total    Total    `json:"total"`
	MaxScore *float64 `json:"max_score"`
	Hits     []Hit    `json:"hits"`
}

// Total is the match count. It decodes both the object form
// ({"value": n, "relation": "eq"}) and the legacy integer form.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// UnmarshalJSON accepts an object or a bare integer.
func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '{' {
		if err := json.Unmarshal(data, &t.Value); err != nil {
			return fmt.Errorf("decode hits.total: %w", err)
		}
		t.Relation = "eq"
		return nil
	}
	type plain Total
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode hits.total: %w", err)
	}
	*t = Total(p)
	return nil
}

// Hit is one search hit with its raw source.
type Hit struct {
	Index       string              `json:"_index"`
	ID          string              `json:"_id"`
	Score       *float64            `json:"_score"`
	Source      json.RawMessage     `json:"_source"`
	Highlight   map[string][]string `json:"highlight"`
	Sort        []any               `json:"sort"`
	Explanation json.RawMessage     `json:"_explanation"`
}

// ScoreOrZero returns the hit score, or 0 when the backend omitted it (e.g. field sorts).
func (h *Hit) ScoreOrZero() float64 {
	if h.Score == nil {
		return 0
	}
	return *h.Score
}

// Document is a decoded document API response.
type Document struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
}
