package relevance

// Article is a Wikipedia article as seen by the classification pipeline.
type Article struct {
	ID        string
	Title     string
	Content   string
	HTMLHints string
	KeyTopics []string
	// Location is the currently linked location, nil when none.
	Location *Location
}

// Flagged is an article scored as not relevant, as persisted for review.
type Flagged struct {
	RunID          string
	Article        Article
	Score          Score
	Classification *LocationClassification
}
