package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/judge"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/query"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/request"
	"github.com/kailas-cloud/tweetdex/internal/logger"
	"github.com/kailas-cloud/tweetdex/internal/metrics"
)

// DefaultCandidateLimit is the number of candidates fetched from each source.
const DefaultCandidateLimit = 150

// Config tunes the search pipeline.
type Config struct {
	CandidateLimit int
	MaxK           int
	StoreTimeout   time.Duration
	EmbedTimeout   time.Duration
	JudgeTimeout   time.Duration
	// DegradeOnEmbeddingError turns an embedding failure into an empty semantic set.
	DegradeOnEmbeddingError bool
	Weights                 Weights
}

// Service runs the hybrid retrieval and ranking pipeline.
type Service struct {
	repo   Repository
	embed  Embedder
	judge  Judge
	ranker Ranker
	cfg    Config
	now    func() time.Time
}

// New creates a search service. Zero timeouts disable the per-call deadline.
func New(repo Repository, embed Embedder, j Judge, cfg Config) *Service {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = request.MaxK
	}
	return &Service{
		repo:   repo,
		embed:  embed,
		judge:  j,
		ranker: NewRanker(cfg.Weights),
		cfg:    cfg,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for recency scoring.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search fetches lexical and semantic candidates concurrently, fuses them,
// asks the judge for relevance scores, and returns the top k ranked tweets.
// Any fetch or judge failure fails the whole request.
func (s *Service) Search(ctx context.Context, rawQuery string, k int) ([]candidate.Ranked, error) {
	req, err := request.New(rawQuery, k, s.cfg.MaxK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	log := logger.FromContext(ctx)
	limit := s.cfg.CandidateLimit

	var lexical, semantic []candidate.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = s.LexicalSearch(gctx, req.Query(), limit)
		return err
	})
	g.Go(func() error {
		var err error
		semantic, err = s.SemanticSearch(gctx, req.Query(), limit)
		if err != nil && s.cfg.DegradeOnEmbeddingError && errors.Is(err, domain.ErrEmbeddingProviderError) {
			log.Warn("Embedding failed, continuing with lexical candidates only", zap.Error(err))
			semantic, err = nil, nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(lexical, semantic)
	metrics.SearchCandidates.WithLabelValues("lexical").Observe(float64(len(lexical)))
	metrics.SearchCandidates.WithLabelValues("semantic").Observe(float64(len(semantic)))
	metrics.SearchCandidates.WithLabelValues("fused").Observe(float64(len(fused)))

	if len(fused) == 0 {
		log.Debug("No candidates", zap.String("query", req.Query()))
		return []candidate.Ranked{}, nil
	}

	scores, err := s.Judge(ctx, req.Query(), fused)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ranked := s.ranker.Rank(fused, scores, req.K(), s.now())
	metrics.SearchStageDuration.WithLabelValues("rank").Observe(time.Since(start).Seconds())

	log.Debug("Search completed",
		zap.Int("lexical", len(lexical)),
		zap.Int("semantic", len(semantic)),
		zap.Int("fused", len(fused)),
		zap.Int("scored", len(scores)),
		zap.Int("returned", len(ranked)),
	)

	return ranked, nil
}

// LexicalSearch returns full-text candidates for a web-search style query.
// A query with no searchable terms yields no candidates.
func (s *Service) LexicalSearch(ctx context.Context, rawQuery string, limit int) ([]candidate.Candidate, error) {
	q := query.Parse(rawQuery)
	if q.Empty() {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	cands, err := s.repo.LexicalSearch(ctx, q, limit)
	metrics.SearchStageDuration.WithLabelValues("lexical").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, ensureKind(fmt.Errorf("lexical search: %w", err), domain.ErrStoreUnavailable)
	}
	return cands, nil
}

// SemanticSearch embeds the query and returns its nearest neighbours.
func (s *Service) SemanticSearch(ctx context.Context, rawQuery string, limit int) ([]candidate.Candidate, error) {
	start := time.Now()

	embedCtx, cancel := withTimeout(ctx, s.cfg.EmbedTimeout)
	emb, err := s.embed.Embed(embedCtx, rawQuery)
	cancel()
	metrics.SearchStageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, ensureKind(fmt.Errorf("vectorize query: %w", err), domain.ErrEmbeddingProviderError)
	}
	if len(emb.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrEmbeddingProviderError)
	}

	storeCtx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start = time.Now()
	cands, err := s.repo.VectorSearch(storeCtx, emb.Embedding, limit)
	metrics.SearchStageDuration.WithLabelValues("semantic").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, ensureKind(fmt.Errorf("vector search: %w", err), domain.ErrStoreUnavailable)
	}
	return cands, nil
}

// Judge scores fused candidates under the judge timeout.
func (s *Service) Judge(ctx context.Context, rawQuery string, cands []candidate.Candidate) (judge.Scores, error) {
	if len(cands) == 0 {
		return judge.Scores{}, nil
	}

	ctx, cancel := withTimeout(ctx, s.cfg.JudgeTimeout)
	defer cancel()

	start := time.Now()
	scores, err := s.judge.Judge(ctx, rawQuery, cands)
	metrics.SearchStageDuration.WithLabelValues("judge").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrJudgeParse) {
			return nil, fmt.Errorf("judge: %w", err)
		}
		return nil, ensureKind(fmt.Errorf("judge: %w", err), domain.ErrJudgeUnavailable)
	}
	return scores, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// ensureKind makes err match kind under errors.Is.
func ensureKind(err, kind error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
