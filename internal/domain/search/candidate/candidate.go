package candidate

import "time"

// TimeLayout renders created_at as ISO-8601 UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Candidate is a per-request tweet under consideration.
// LexicalRank is 0 for semantic-only hits, SemanticSimilarity is 0 for lexical-only hits.
// Both are only comparable within one run.
type Candidate struct {
	Ordinal            int
	DocumentID         string
	CreatedAt          time.Time
	Text               string
	IsRetweet          bool
	HasMedia           bool
	LexicalRank        float64
	SemanticSimilarity float64
}

// CreatedAtISO returns CreatedAt in TimeLayout.
func (c *Candidate) CreatedAtISO() string {
	return FormatTime(c.CreatedAt)
}

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Ranked is a Candidate with its final blended score.
type Ranked struct {
	Candidate
	FinalScore float64
}
