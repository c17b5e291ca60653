package tweet

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/tweetdex/internal/db"
	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/query"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

// store is the consumer interface for tweets (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
	EFRuntime   int
}

// Repo implements the tweet repository over a Redis query-engine index.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a tweet repository for embeddings of the given dimension.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: HNSWConfig{M: 32, EFConstruct: 400}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	if cfg.EFRuntime > 0 {
		r.hnsw.EFRuntime = cfg.EFRuntime
	}
	return r
}

// EnsureIndex creates the tweet index if it does not exist. Returns true if created.
func (r *Repo) EnsureIndex(ctx context.Context) (bool, error) {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return false, fmt.Errorf("%w: check index: %w", domain.ErrStoreUnavailable, err)
	}
	if exists {
		return false, nil
	}
	return r.create(ctx)
}

// RecreateIndex drops the index (keeping the hashes) and builds it again.
// The store re-indexes existing tweets in the background.
func (r *Repo) RecreateIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, indexName); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: drop index: %w", domain.ErrStoreUnavailable, err)
	}
	_, err := r.create(ctx)
	return err
}

func (r *Repo) create(ctx context.Context) (bool, error) {
	def, err := buildIndex(r.vectorDim, r.hnsw)
	if err != nil {
		return false, fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("%w: create index: %w", domain.ErrStoreUnavailable, err)
	}
	return true, nil
}

// Upsert writes tweets in one pipelined round-trip. Existing tweets are overwritten;
// a stored embedding survives when the new row carries none.
func (r *Repo) Upsert(ctx context.Context, tweets []domtweet.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(tweets))
	for i := range tweets {
		if v := tweets[i].Embedding(); v != nil && len(v) != r.vectorDim {
			return fmt.Errorf("tweet %s: embedding has %d dimensions, index expects %d",
				tweets[i].ID(), len(v), r.vectorDim)
		}
		items[i] = db.HashSetItem{Key: tweetKey(tweets[i].ID()), Fields: buildHashFields(&tweets[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert %d tweets: %w", domain.ErrStoreUnavailable, len(tweets), err)
	}
	return nil
}

// Get returns a stored tweet by ID.
func (r *Repo) Get(ctx context.Context, id string) (domtweet.Tweet, error) {
	m, err := r.store.HGetAll(ctx, tweetKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domtweet.Tweet{}, domain.ErrTweetNotFound
		}
		return domtweet.Tweet{}, fmt.Errorf("%w: get tweet %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return parseHashFields(id, m)
}

// Count returns the number of indexed tweets.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("%w: count tweets: %w", domain.ErrStoreUnavailable, err)
	}
	return n, nil
}

// lexicalOvershoot is how many extra hits are fetched so ties at the cutoff
// are settled by age rather than by store order.
const lexicalOvershoot = 32

// LexicalSearch returns up to limit tweets matching q, best lexical score first,
// older tweets first among equal scores. An empty query matches nothing.
func (r *Repo) LexicalSearch(ctx context.Context, q query.Query, limit int) ([]candidate.Candidate, error) {
	expr := renderQuery(q)
	if expr == "" || limit <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    indexName,
		Field:        fieldTextFolded,
		Query:        expr,
		Limit:        limit + lexicalOvershoot,
		Scorer:       scorer,
		Language:     language,
		ReturnFields: candidateFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: lexical search: %w", domain.ErrStoreUnavailable, err)
	}

	out := entriesToCandidates(sr, func(c *candidate.Candidate, score float64) { c.LexicalRank = score })
	slices.SortStableFunc(out, func(a, b candidate.Candidate) int {
		if c := cmp.Compare(b.LexicalRank, a.LexicalRank); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// VectorSearch returns up to limit embedded tweets nearest to vec, most similar first.
func (r *Repo) VectorSearch(ctx context.Context, vec []float32, limit int) ([]candidate.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(vec) != r.vectorDim {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d", len(vec), r.vectorDim)
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		Field:        fieldEmbedding,
		Vector:       vec,
		K:            limit,
		EFRuntime:    r.hnsw.EFRuntime,
		ReturnFields: candidateFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrStoreUnavailable, err)
	}

	out := entriesToCandidates(sr, func(c *candidate.Candidate, score float64) { c.SemanticSimilarity = score })
	slices.SortStableFunc(out, func(a, b candidate.Candidate) int {
		return cmp.Compare(b.SemanticSimilarity, a.SemanticSimilarity)
	})
	return out, nil
}

func entriesToCandidates(sr *db.SearchResult, setScore func(*candidate.Candidate, float64)) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix)
		c, ok := parseCandidate(id, entry.Fields)
		if !ok {
			continue
		}
		setScore(&c, entry.Score)
		out = append(out, c)
	}
	return out
}
