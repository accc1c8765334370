package esquery

// BoolBuilder is a fluent builder for bool queries.
type BoolBuilder struct {
	must    []Map
	should  []Map
	filter  []Map
	mustNot []Map
	msm     *int
}

// Bool starts a bool query.
func Bool() *BoolBuilder {
	return &BoolBuilder{}
}

// Must adds scoring clauses that have to match.
func (b *BoolBuilder) Must(q ...Map) *BoolBuilder {
	b.must = appendNonNil(b.must, q)
	return b
}

// Should adds optional scoring clauses.
func (b *BoolBuilder) Should(q ...Map) *BoolBuilder {
	b.should = appendNonNil(b.should, q)
	return b
}

// Filter adds non-scoring clauses that have to match.
func (b *BoolBuilder) Filter(q ...Map) *BoolBuilder {
	b.filter = appendNonNil(b.filter, q)
	return b
}

// MustNot adds exclusion clauses.
func (b *BoolBuilder) MustNot(q ...Map) *BoolBuilder {
	b.mustNot = appendNonNil(b.mustNot, q)
	return b
}

// MinimumShouldMatch sets how many should clauses must match.
func (b *BoolBuilder) MinimumShouldMatch(n int) *BoolBuilder {
	b.msm = &n
	return b
}

// IsEmpty reports whether no clause was added.
func (b *BoolBuilder) IsEmpty() bool {
	return len(b.must) == 0 && len(b.should) == 0 && len(b.filter) == 0 && len(b.mustNot) == 0
}

// Build returns the bool query, omitting empty sections. An empty builder yields match_all.
func (b *BoolBuilder) Build() Map {
	if b.IsEmpty() {
		return MatchAll()
	}
	body := Map{}
	if len(b.must) > 0 {
		body["must"] = b.must
	}
	if len(b.should) > 0 {
		body["should"] = b.should
	}
	if len(b.filter) > 0 {
		body["filter"] = b.filter
	}
	if len(b.mustNot) > 0 {
		body["must_not"] = b.mustNot
	}
	if b.msm != nil {
		body["minimum_should_match"] = *b.msm
	}
	return Map{"bool": body}
}

func appendNonNil(dst, src []Map) []Map {
	for _, q := range src {
		if q != nil {
			dst = append(dst, q)
		}
	}
	return dst
}
