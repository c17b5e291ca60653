// Package query parses web-search style queries: unquoted words are ANDed,
// "quoted phrases" match as phrases, a bare `or` separates alternatives and
// a leading `-` negates a word or phrase.
//
// Terms are folded and stop words are removed, mirroring how tweet text is indexed.
package query

import (
	"strings"

	"github.com/kailas-cloud/tweetdex/internal/domain/text"
)

// Term is a word or phrase, optionally negated.
type Term struct {
	Words   []string
	Negated bool
}

// IsPhrase reports whether the term spans more than one word.
func (t Term) IsPhrase() bool { return len(t.Words) > 1 }

// Group is a conjunction of terms.
type Group []Term

// Query is a disjunction of groups.
type Query struct {
	Groups []Group
}

// Empty reports whether the query has nothing to search for.
// A query made only of negations is treated as empty.
func (q Query) Empty() bool {
	for _, g := range q.Groups {
		for _, t := range g {
			if !t.Negated {
				return false
			}
		}
	}
	return true
}

type token struct {
	words   []string
	negated bool
	quoted  bool
	or      bool
}

// Parse turns raw input into a Query. It never fails; unmatched quotes run to the end
// of the input and terms that reduce to nothing are dropped.
func Parse(raw string) Query {
	tokens := tokenize(text.Fold(raw))

	var (
		groups  []Group
		current Group
	)
	flush := func() {
		if len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
	}

	for _, tok := range tokens {
		if tok.or {
			flush()
			continue
		}
		words := significant(tok.words)
		if len(words) == 0 {
			continue
		}
		if !tok.quoted && len(words) > 1 {
			// "covid-19" style compounds split into required words.
			for _, w := range words {
				current = append(current, Term{Words: []string{w}, Negated: tok.negated})
			}
			continue
		}
		current = append(current, Term{Words: words, Negated: tok.negated})
	}
	flush()

	// Drop groups that only negate; on their own they would match everything.
	out := groups[:0]
	for _, g := range groups {
		if (Query{Groups: []Group{g}}).Empty() {
			continue
		}
		out = append(out, g)
	}
	return Query{Groups: out}
}

func tokenize(s string) []token {
	var tokens []token
	i := 0
	for i < len(s) {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"' || (c == '-' && i+1 < len(s) && s[i+1] == '"'):
			negated := c == '-'
			if negated {
				i++
			}
			end := strings.IndexByte(s[i+1:], '"')
			var body string
			if end < 0 {
				body, i = s[i+1:], len(s)
			} else {
				body, i = s[i+1:i+1+end], i+2+end
			}
			tokens = append(tokens, token{words: text.Words(body), negated: negated, quoted: true})
		default:
			end := strings.IndexAny(s[i:], " \t\n\r\"")
			var word string
			if end < 0 {
				word, i = s[i:], len(s)
			} else {
				word, i = s[i:i+end], i+end
			}
			negated := strings.HasPrefix(word, "-")
			if negated {
				word = word[1:]
			}
			if word == "or" && !negated {
				tokens = append(tokens, token{or: true})
				continue
			}
			tokens = append(tokens, token{words: text.Words(word), negated: negated})
		}
	}
	return tokens
}

func significant(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if text.IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
