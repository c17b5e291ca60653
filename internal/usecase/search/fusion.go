package search

import "github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"

// Fuse merges lexical and semantic candidates by document id.
// Lexical hits keep their fetched order and pick up the semantic similarity of a
// matching semantic hit; semantic-only hits follow in their fetched order with a
// zero lexical rank. The first occurrence of an id within a list wins.
// Ordinals are reassigned 0..n-1 over the output order.
func Fuse(lexical, semantic []candidate.Candidate) []candidate.Candidate {
	fused := make([]candidate.Candidate, 0, len(lexical)+len(semantic))
	pos := make(map[string]int, len(lexical)+len(semantic))

	for _, c := range lexical {
		if _, ok := pos[c.DocumentID]; ok {
			continue
		}
		c.SemanticSimilarity = 0
		pos[c.DocumentID] = len(fused)
		fused = append(fused, c)
	}

	lexicalCount := len(fused)
	matched := make(map[string]bool, len(semantic))
	for _, c := range semantic {
		if i, ok := pos[c.DocumentID]; ok {
			if i < lexicalCount && !matched[c.DocumentID] {
				fused[i].SemanticSimilarity = c.SemanticSimilarity
				matched[c.DocumentID] = true
			}
			continue
		}
		c.LexicalRank = 0
		pos[c.DocumentID] = len(fused)
		fused = append(fused, c)
	}

	for i := range fused {
		fused[i].Ordinal = i
	}
	return fused
}
