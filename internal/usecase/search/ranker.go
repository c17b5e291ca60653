package search

import (
	"math"
	"slices"
	"time"

	"github.com/kailas-cloud/tweetdex/internal/domain/judge"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/domain/text"
)

// epsilon keeps normalizations finite on degenerate pools.
const epsilon = 1e-6

// Weights blend the per-candidate signals into a final score.
type Weights struct {
	Judge          float64
	Lexical        float64
	Semantic       float64
	Recency        float64
	RetweetPenalty float64
}

// DefaultWeights returns the production blend.
func DefaultWeights() Weights {
	return Weights{
		Judge:          0.6,
		Lexical:        0.15,
		Semantic:       0.15,
		Recency:        0.1,
		RetweetPenalty: 0.03,
	}
}

// Ranker computes final scores, removes near-duplicate texts, and truncates.
type Ranker struct {
	weights Weights
}

// NewRanker creates a ranker with the given weights.
func NewRanker(w Weights) Ranker {
	return Ranker{weights: w}
}

// Rank scores candidates and returns at most k of them, best first.
//
// Lexical rank and semantic similarity are divided by their pool maximum.
// Age is log-scaled in days and min-max normalized so the oldest candidate gets 1
// and the newest 0. Candidates missing from scores count as judge score 0.
// Among candidates whose texts share a DedupKey only the highest final score
// survives, in the slot of the first one seen.
func (r Ranker) Rank(cands []candidate.Candidate, scores judge.Scores, k int, now time.Time) []candidate.Ranked {
	if len(cands) == 0 || k <= 0 {
		return []candidate.Ranked{}
	}

	maxLex, maxSem := 0.0, 0.0
	logAges := make([]float64, len(cands))
	minAge, maxAge := math.Inf(1), math.Inf(-1)
	for i := range cands {
		maxLex = max(maxLex, cands[i].LexicalRank)
		maxSem = max(maxSem, cands[i].SemanticSimilarity)

		days := now.Sub(cands[i].CreatedAt).Hours() / 24
		logAges[i] = math.Log1p(max(0, days))
		minAge = min(minAge, logAges[i])
		maxAge = max(maxAge, logAges[i])
	}
	lexDen := max(maxLex, epsilon)
	semDen := max(maxSem, epsilon)
	ageDen := max(maxAge-minAge, epsilon)

	out := make([]candidate.Ranked, 0, len(cands))
	seen := make(map[string]int, len(cands))

	for i := range cands {
		c := cands[i]
		llm := float64(judge.Clamp(float64(scores[c.Ordinal]))) / judge.MaxScore
		lex := c.LexicalRank / lexDen
		sem := c.SemanticSimilarity / semDen
		age := (logAges[i] - minAge) / ageDen

		final := r.weights.Judge*llm +
			r.weights.Lexical*lex +
			r.weights.Semantic*sem +
			r.weights.Recency*age
		if c.IsRetweet {
			final -= r.weights.RetweetPenalty
		}

		ranked := candidate.Ranked{Candidate: c, FinalScore: final}
		key := text.DedupKey(c.Text)
		if j, ok := seen[key]; ok {
			if final > out[j].FinalScore {
				out[j] = ranked
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, ranked)
	}

	slices.SortStableFunc(out, func(a, b candidate.Ranked) int {
		switch {
		case a.FinalScore > b.FinalScore:
			return -1
		case a.FinalScore < b.FinalScore:
			return 1
		default:
			return 0
		}
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}
