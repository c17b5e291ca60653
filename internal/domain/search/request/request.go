package request

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 512
	DefaultK       = 40
	MaxK           = 200
)

// Request is a validated search query.
type Request struct {
	query string
	k     int
}

// New validates and normalizes search parameters.
// The query is trimmed; k <= 0 falls back to DefaultK and is capped at maxK
// (MaxK when maxK <= 0).
func New(query string, k, maxK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if maxK <= 0 {
		maxK = MaxK
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > maxK {
		k = maxK
	}
	return Request{query: query, k: k}, nil
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// K returns the number of results to return.
func (r *Request) K() int { return r.k }
