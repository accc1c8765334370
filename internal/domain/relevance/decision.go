package relevance

import (
	"fmt"
	"time"
)

// Action is the corrective step taken for an article after classification.
type Action string

// Actions.
const (
	ActionNone           Action = "none"
	ActionRemove         Action = "remove"
	ActionUpdateLocation Action = "update_location"
)

// Decision is the outcome of comparing a stored location with a fresh classification.
type Decision struct {
	Action Action
	Reason string
	// Target is the corrected location for ActionUpdateLocation.
	Target Location
}

// Event is the published record of one article's outcome in a classification run.
type Event struct {
	RunID     string    `json:"run_id"`
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Outcome   string    `json:"outcome"` // kept, flagged, removed
	Action    Action    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	Overall   float64   `json:"overall_score"`
	Category  string    `json:"category,omitempty"`
	Location  *Location `json:"location,omitempty"`
	DryRun    bool      `json:"dry_run"`
	Timestamp time.Time `json:"timestamp"`
}

// DecisionConfig gates when a mismatch is acted on.
type DecisionConfig struct {
	// ConfidenceThreshold is the classifier confidence needed to act on a mismatch. Zero means 0.7.
	ConfidenceThreshold float64
	// RemovalConfidence is the confidence below which an article with no location is removed. Zero means 0.1.
	RemovalConfidence float64
}

// Decide picks the action for one article. stored is nil when the article has no location yet.
//
// An article with no identifiable location at near-zero confidence is removed outright.
// Otherwise a mismatch is acted on only at or above the confidence threshold: the article is
// removed when the corrected state is not allowed, else relinked to the corrected location.
func Decide(cfg DecisionConfig, scorer *Scorer, stored *Location, cls LocationClassification) Decision {
	threshold, removal := cfg.ConfidenceThreshold, cfg.RemovalConfidence
	if threshold <= 0 {
		threshold = 0.7
	}
	if removal <= 0 {
		removal = 0.1
	}

	if !cls.HasLocation() {
		if cls.Confidence < removal {
			return Decision{Action: ActionRemove, Reason: "no identifiable location"}
		}
		return Decision{Action: ActionNone, Reason: "no location extracted"}
	}

	extracted := cls.Location()
	if stored != nil && !DetectMismatch(*stored, extracted) {
		return Decision{Action: ActionNone, Reason: "location confirmed"}
	}
	if cls.Confidence < threshold {
		return Decision{Action: ActionNone, Reason: fmt.Sprintf("mismatch ignored at confidence %.2f", cls.Confidence)}
	}
	if !scorer.IsAllowedState(extracted.State) {
		return Decision{
			Action: ActionRemove,
			Reason: fmt.Sprintf("corrected location %q is outside allowed states", extracted.State),
			Target: extracted,
		}
	}
	return Decision{Action: ActionUpdateLocation, Reason: "location corrected", Target: extracted}
}
