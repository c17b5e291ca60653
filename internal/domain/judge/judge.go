// Package judge holds the relevance judge protocol: the prompt sent to the model
// and the tolerant parsing of its scores.
package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/domain/text"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 6
)

// MaxTextLength caps candidate text sent to the judge.
const MaxTextLength = 300

// SystemPrompt instructs the model how to rate candidates.
const SystemPrompt = "You rate tweets strictly 0..6 for how well they describe or entail the given headline. " +
	"Return only compact JSON array of {i, score}. No commentary."

// Scores maps candidate ordinal to judge score in [MinScore, MaxScore].
type Scores map[int]int

// item is one candidate line of the user prompt.
type item struct {
	I         int    `json:"i"`
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
}

// UserPrompt renders the query and candidates as a JSONL listing.
func UserPrompt(query string, candidates []candidate.Candidate) (string, error) {
	var b strings.Builder
	b.WriteString("Headline: ")
	b.WriteString(query)
	b.WriteString("\n\nCandidates (JSONL):\n")

	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	for i := range candidates {
		c := &candidates[i]
		if err := enc.Encode(item{
			I:         c.Ordinal,
			ID:        c.DocumentID,
			CreatedAt: c.CreatedAtISO(),
			Text:      text.Truncate(c.Text, MaxTextLength),
		}); err != nil {
			return "", fmt.Errorf("encode candidate %d: %w", c.Ordinal, err)
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Parse extracts scores from a model reply. It tries the whole reply as a JSON array
// first, then the first well-formed array found inside it. Entries without a finite
// integral ordinal or a finite score are dropped; scores are rounded and clamped.
// Later entries for the same ordinal override earlier ones.
func Parse(content string) (Scores, error) {
	raw, ok := strictArray(content)
	if !ok {
		raw, ok = embeddedArray(content)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no JSON array in reply", domain.ErrJudgeParse)
	}

	scores := make(Scores, len(raw))
	for _, entry := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			continue
		}
		ord, ok := number(fields["i"])
		if !ok || ord != math.Trunc(ord) || ord < 0 || ord > math.MaxInt32 {
			continue
		}
		score, ok := number(fields["score"])
		if !ok {
			continue
		}
		scores[int(ord)] = Clamp(score)
	}
	return scores, nil
}

// Clamp rounds s half away from zero and clamps it into [MinScore, MaxScore].
func Clamp(s float64) int {
	r := math.Round(s)
	switch {
	case r < MinScore:
		return MinScore
	case r > MaxScore:
		return MaxScore
	default:
		return int(r)
	}
}

func strictArray(content string) ([]json.RawMessage, bool) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") {
		return nil, false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

func embeddedArray(content string) ([]json.RawMessage, bool) {
	data := []byte(content)
	for off := 0; off < len(data); {
		idx := bytes.IndexByte(data[off:], '[')
		if idx < 0 {
			return nil, false
		}
		start := off + idx
		var arr []json.RawMessage
		if err := json.NewDecoder(bytes.NewReader(data[start:])).Decode(&arr); err == nil {
			return arr, true
		}
		off = start + 1
	}
	return nil, false
}

// number accepts JSON numbers and numeric strings; anything else, or a non-finite value, is rejected.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
