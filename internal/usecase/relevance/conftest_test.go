package relevance

import (
	"context"
	"errors"
	"slices"

	domrel "github.com/kailas-cloud/estatesearch/internal/domain/relevance"
)

// --- Fakes ---

type fakeStore struct {
	articles  []domrel.Article
	flagged   []domrel.Flagged
	locations []domrel.Location
	relinked  map[string]int64
	removed   []string
	listCalls [][2]int

	saveErr error
}

func (s *fakeStore) ListArticles(_ context.Context, limit, offset int) ([]domrel.Article, error) {
	s.listCalls = append(s.listCalls, [2]int{limit, offset})
	if offset >= len(s.articles) {
		return nil, nil
	}
	end := min(len(s.articles), offset+limit)
	return slices.Clone(s.articles[offset:end]), nil
}

func (s *fakeStore) SaveFlagged(_ context.Context, f domrel.Flagged) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.flagged = append(s.flagged, f)
	return nil
}

func (s *fakeStore) GetOrCreateLocation(_ context.Context, loc domrel.Location) (domrel.Location, error) {
	for _, l := range s.locations {
		if l.Key() == loc.Key() {
			return l, nil
		}
	}
	loc.ID = int64(len(s.locations) + 1)
	s.locations = append(s.locations, loc)
	return loc, nil
}

func (s *fakeStore) UpdateArticleLocation(_ context.Context, articleID string, locationID int64) error {
	if s.relinked == nil {
		s.relinked = map[string]int64{}
	}
	s.relinked[articleID] = locationID
	return nil
}

func (s *fakeStore) RemoveArticle(_ context.Context, articleID string) error {
	s.removed = append(s.removed, articleID)
	s.articles = slices.DeleteFunc(s.articles, func(a domrel.Article) bool { return a.ID == articleID })
	return nil
}

type fakeClassifier struct {
	byID  map[string]domrel.LocationClassification
	errs  map[string]error
	calls []string
}

func (c *fakeClassifier) Classify(_ context.Context, a domrel.Article) (domrel.LocationClassification, error) {
	c.calls = append(c.calls, a.ID)
	if err, ok := c.errs[a.ID]; ok {
		return domrel.LocationClassification{}, err
	}
	return c.byID[a.ID], nil
}

type fakePublisher struct {
	events []domrel.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, events ...domrel.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

var errLLMDown = errors.New("llm down")

func testScorer() *domrel.Scorer {
	return domrel.NewScorer(domrel.ScorerConfig{
		AllowedStates:  []string{"Utah", "California"},
		TargetCounties: []string{"Summit"},
		TargetCities:   []string{"Park City"},
	})
}

// fixture returns five articles covering every outcome, and a classifier for them:
// a1 kept, a2 removed (out of state), a3 classifier error, a4 kept and relocated, a5 flagged.
func fixture() (*fakeStore, *fakeClassifier) {
	store := &fakeStore{articles: []domrel.Article{
		{ID: "a1", Title: "Park City", Location: &domrel.Location{ID: 7, Country: "USA", State: "Utah", County: "Summit", City: "Park City", Type: domrel.TypeCity}},
		{ID: "a2", Title: "Boise"},
		{ID: "a3", Title: "Broken"},
		{ID: "a4", Title: "Ogden", KeyTopics: []string{"history"}, Location: &domrel.Location{ID: 8, Country: "USA", State: "Utah", City: "Salt Lake City"}},
		{ID: "a5", Title: "Moab", Location: &domrel.Location{ID: 9, Country: "USA", State: "Utah", City: "Moab", Type: domrel.TypeCity}},
	}}
	cls := &fakeClassifier{
		byID: map[string]domrel.LocationClassification{
			"a1": {Name: "Park City", Type: domrel.TypeCity, City: "Park City", County: "Summit", State: "Utah", Confidence: 0.95, KeyTopics: []string{"housing", "ski"}},
			"a2": {Name: "Boise", Type: domrel.TypeCity, State: "Idaho", Confidence: 0.9},
			"a4": {Name: "Ogden", Type: domrel.TypeCity, State: "Utah", Confidence: 0.95},
			"a5": {Name: "Moab", Type: domrel.TypeCity, State: "Utah", Confidence: 0.4},
		},
		errs: map[string]error{"a3": errLLMDown},
	}
	return store, cls
}
