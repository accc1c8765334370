package relevance

import (
	"fmt"
	"slices"
	"strings"
)

// CriticalPrefix marks a flag reason that makes an article irrelevant regardless of its score.
const CriticalPrefix = "CRITICAL"

// Weights combines the three component scores into the overall score.
type Weights struct {
	Location   float64
	RealEstate float64
	Geographic float64
}

// Default weights. They are tuned constants, overridable through ScorerConfig.
var (
	LLMWeights     = Weights{Location: 0.4, RealEstate: 0.4, Geographic: 0.2}
	KeywordWeights = Weights{Location: 0.4, RealEstate: 0.5, Geographic: 0.1}
)

// ScorerConfig holds the geography and vocabulary the scorer tests articles against.
type ScorerConfig struct {
	AllowedStates      []string
	TargetCounties     []string
	TargetCities       []string
	RealEstateKeywords []string
	// MinScore is the overall score an article needs to be relevant. Zero means 0.5.
	MinScore       float64
	LLMWeights     *Weights
	KeywordWeights *Weights
}

// DefaultRealEstateKeywords is used when no keywords are configured.
var DefaultRealEstateKeywords = []string{
	"real estate", "housing", "home", "homes", "neighborhood", "residential", "property",
	"properties", "development", "zoning", "school", "schools", "park", "parks", "downtown",
	"community", "amenities", "transit", "shopping", "suburb", "apartment", "condo",
}

// Score is the relevance verdict for one article.
type Score struct {
	ArticleID           string   `json:"article_id"`
	LocationRelevance   float64  `json:"location_relevance"`
	RealEstateRelevance float64  `json:"real_estate_relevance"`
	GeographicScope     float64  `json:"geographic_scope"`
	Overall             float64  `json:"overall_score"`
	IsRelevant          bool     `json:"is_relevant"`
	Category            string   `json:"category"`
	ReasonsToFlag       []string `json:"reasons_to_flag"`
	ReasonsToKeep       []string `json:"reasons_to_keep"`
}

// ShouldFlag reports whether the article must be flagged for exclusion.
func (s Score) ShouldFlag() bool { return !s.IsRelevant }

// Scorer computes relevance scores. It is pure and safe for concurrent use.
type Scorer struct {
	allowed    map[string]struct{}
	counties   []string
	cities     []string
	keywords   []string
	minScore   float64
	llmW       Weights
	keywordW   Weights
	stateNames []string
}

// NewScorer creates a scorer from configuration.
func NewScorer(cfg ScorerConfig) *Scorer {
	s := &Scorer{
		allowed:  make(map[string]struct{}, len(cfg.AllowedStates)),
		counties: lowerAll(cfg.TargetCounties),
		cities:   lowerAll(cfg.TargetCities),
		keywords: lowerAll(cfg.RealEstateKeywords),
		minScore: cfg.MinScore,
		llmW:     LLMWeights,
		keywordW: KeywordWeights,
	}
	for _, st := range cfg.AllowedStates {
		name := CanonicalState(st)
		s.allowed[norm(name)] = struct{}{}
		s.stateNames = append(s.stateNames, norm(name))
	}
	if len(s.keywords) == 0 {
		s.keywords = DefaultRealEstateKeywords
	}
	if s.minScore <= 0 {
		s.minScore = 0.5
	}
	if cfg.LLMWeights != nil {
		s.llmW = *cfg.LLMWeights
	}
	if cfg.KeywordWeights != nil {
		s.keywordW = *cfg.KeywordWeights
	}
	return s
}

// IsAllowedState reports whether state (name or postal code) is in the allowed set.
func (s *Scorer) IsAllowedState(state string) bool {
	_, ok := s.allowed[norm(CanonicalState(state))]
	return ok
}

// EvaluateWithLLMData scores an article from its classification and topics.
// The result depends only on the arguments and the scorer configuration.
func (s *Scorer) EvaluateWithLLMData(
	articleID string, loc LocationClassification, keyTopics []string, confidence float64,
) Score {
	sc := Score{ArticleID: articleID, Category: string(loc.Type)}

	switch {
	case loc.State != "" && s.IsAllowedState(loc.State):
		sc.LocationRelevance = 1
		sc.keep("located in %s", CanonicalState(loc.State))
	case loc.State == "" && loc.IsUtahCalifornia:
		sc.LocationRelevance = 0.8
		sc.keep("classifier places it in an allowed state")
	case loc.State == "":
		sc.flag("%s: no identifiable state", CriticalPrefix)
	default:
		sc.flag("%s: located outside allowed states (%s)", CriticalPrefix, CanonicalState(loc.State))
	}

	matched := s.matchTopics(keyTopics)
	sc.RealEstateRelevance = min(1, 0.5*float64(len(matched)))
	if len(matched) > 0 {
		sc.keep("real-estate topics: %s", strings.Join(matched, ", "))
	} else {
		sc.flag("no real-estate topics")
	}

	switch {
	case sc.LocationRelevance == 0:
	case s.isTarget(loc.County, s.counties) || s.isTarget(loc.City, s.cities) || s.isTarget(loc.Name, s.cities):
		sc.GeographicScope = 1
		sc.keep("in a target area")
	default:
		sc.GeographicScope = 0.5
	}

	if loc.ShouldFlag {
		sc.flag("classifier suggested flagging")
	}

	sc.Overall = clamp(s.llmW.Location*sc.LocationRelevance +
		s.llmW.RealEstate*sc.RealEstateRelevance +
		s.llmW.Geographic*sc.GeographicScope +
		confidenceAdjustment(confidence))
	sc.decide(s.minScore)
	return sc
}

// EvaluateArticle scores an article from its text alone, without a classifier.
func (s *Scorer) EvaluateArticle(articleID, title, content string) Score {
	sc := Score{ArticleID: articleID, Category: "keyword"}
	text := " " + strings.ToLower(title+" "+content) + " "

	var states []string
	for _, st := range s.stateNames {
		if containsWord(text, st) {
			states = append(states, st)
		}
	}
	if len(states) > 0 {
		sc.LocationRelevance = 1
		sc.keep("mentions %s", strings.Join(states, ", "))
	} else {
		sc.flag("%s: no allowed state mentioned", CriticalPrefix)
	}

	var hits []string
	for _, kw := range s.keywords {
		if containsWord(text, kw) {
			hits = append(hits, kw)
		}
	}
	sc.RealEstateRelevance = min(1, float64(len(hits))/5)
	if len(hits) > 0 {
		sc.keep("real-estate keywords: %s", strings.Join(hits, ", "))
	} else {
		sc.flag("no real-estate keywords")
	}

	for _, area := range slices.Concat(s.counties, s.cities) {
		if containsWord(text, area) {
			sc.GeographicScope = 1
			sc.keep("mentions target area %s", area)
			break
		}
	}

	sc.Overall = clamp(s.keywordW.Location*sc.LocationRelevance +
		s.keywordW.RealEstate*sc.RealEstateRelevance +
		s.keywordW.Geographic*sc.GeographicScope)
	sc.decide(s.minScore)
	return sc
}

func (s *Scorer) matchTopics(topics []string) []string {
	var out []string
	for _, t := range topics {
		lt := " " + norm(t) + " "
		for _, kw := range s.keywords {
			if containsWord(lt, kw) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func (s *Scorer) isTarget(v string, targets []string) bool {
	v = norm(v)
	if v == "" {
		return false
	}
	v = strings.TrimSuffix(v, " county")
	for _, t := range targets {
		if v == strings.TrimSuffix(t, " county") {
			return true
		}
	}
	return false
}

func (sc *Score) decide(minScore float64) {
	sc.IsRelevant = sc.Overall >= minScore && !sc.hasCritical()
}

func (sc *Score) hasCritical() bool {
	for _, r := range sc.ReasonsToFlag {
		if strings.HasPrefix(r, CriticalPrefix) {
			return true
		}
	}
	return false
}

func (sc *Score) flag(format string, args ...any) {
	sc.ReasonsToFlag = append(sc.ReasonsToFlag, fmt.Sprintf(format, args...))
}

func (sc *Score) keep(format string, args ...any) {
	sc.ReasonsToKeep = append(sc.ReasonsToKeep, fmt.Sprintf(format, args...))
}

// confidenceAdjustment rewards confident classifications and penalizes shaky ones.
func confidenceAdjustment(c float64) float64 {
	switch {
	case c >= 0.9:
		return 0.1
	case c < 0.3:
		return -0.2
	case c < 0.5:
		return -0.1
	default:
		return 0
	}
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}

// containsWord matches kw on word boundaries inside padded, lowercased text.
func containsWord(text, kw string) bool {
	i := strings.Index(text, kw)
	for i >= 0 {
		before := i == 0 || !isWordByte(text[i-1])
		end := i + len(kw)
		after := end >= len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		next := strings.Index(text[i+1:], kw)
		if next < 0 {
			return false
		}
		i += next + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = norm(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
