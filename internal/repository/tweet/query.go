package tweet

import (
	"strings"

	"github.com/kailas-cloud/tweetdex/internal/domain/search/query"
)

// renderQuery translates a parsed query into query-engine syntax:
// terms in a group are space-joined (AND), groups are joined with `|` (OR),
// phrases are quoted and negations carry a leading `-`.
// Terms hold only letters and digits, so nothing needs escaping.
func renderQuery(q query.Query) string {
	if q.Empty() {
		return ""
	}
	groups := make([]string, 0, len(q.Groups))
	for _, g := range q.Groups {
		terms := make([]string, 0, len(g))
		for _, t := range g {
			terms = append(terms, renderTerm(t))
		}
		groups = append(groups, strings.Join(terms, " "))
	}
	if len(groups) == 1 {
		return groups[0]
	}
	for i, g := range groups {
		groups[i] = "(" + g + ")"
	}
	return strings.Join(groups, " | ")
}

func renderTerm(t query.Term) string {
	var b strings.Builder
	if t.Negated {
		b.WriteByte('-')
	}
	if t.IsPhrase() {
		b.WriteByte('"')
		b.WriteString(strings.Join(t.Words, " "))
		b.WriteByte('"')
	} else {
		b.WriteString(t.Words[0])
	}
	return b.String()
}
