package search

import (
	"context"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/judge"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/query"
)

// Repository defines the storage contract for candidate fetches.
type Repository interface {
	LexicalSearch(ctx context.Context, q query.Query, limit int) ([]candidate.Candidate, error)
	VectorSearch(ctx context.Context, vec []float32, limit int) ([]candidate.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Judge scores candidates against a query by ordinal.
type Judge interface {
	Judge(ctx context.Context, query string, candidates []candidate.Candidate) (judge.Scores, error)
}
