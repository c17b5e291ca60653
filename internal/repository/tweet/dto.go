package tweet

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

// buildHashFields converts a domain Tweet into a flat map[string]string for HSET.
func buildHashFields(t *domtweet.Tweet) map[string]string {
	m := map[string]string{
		fieldText:       t.Text(),
		fieldTextFolded: t.FoldedText(),
		fieldCreatedAt:  strconv.FormatInt(t.CreatedAt().UnixMilli(), 10),
		fieldLang:       t.Lang(),
		fieldIsRetweet:  strconv.FormatBool(t.IsRetweet()),
		fieldHasMedia:   strconv.FormatBool(t.HasMedia()),
	}
	if v := t.Embedding(); v != nil {
		m[fieldEmbedding] = vectorToBytes(v)
	}
	return m
}

// parseHashFields converts a flat hash map back into a domain Tweet.
func parseHashFields(id string, m map[string]string) (domtweet.Tweet, error) {
	createdAt, err := parseMillis(m[fieldCreatedAt])
	if err != nil {
		return domtweet.Tweet{}, fmt.Errorf("tweet %s: %w", id, err)
	}
	var vec []float32
	if raw, ok := m[fieldEmbedding]; ok {
		vec = bytesToVector(raw)
	}
	return domtweet.Reconstruct(
		id, createdAt, m[fieldText], m[fieldLang],
		parseBool(m[fieldIsRetweet]), parseBool(m[fieldHasMedia]), vec,
	), nil
}

// parseCandidate builds a search candidate from returned hash fields.
// Hits without a parseable created_at are skipped.
func parseCandidate(id string, fields map[string]string) (candidate.Candidate, bool) {
	createdAt, err := parseMillis(fields[fieldCreatedAt])
	if err != nil {
		return candidate.Candidate{}, false
	}
	return candidate.Candidate{
		DocumentID: id,
		CreatedAt:  createdAt,
		Text:       fields[fieldText],
		IsRetweet:  parseBool(fields[fieldIsRetweet]),
		HasMedia:   parseBool(fields[fieldHasMedia]),
	}, true
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q", s)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
