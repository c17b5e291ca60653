package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/heading"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/logger"
	healthuc "github.com/kailas-cloud/tweetdex/internal/usecase/health"
)

type searcher interface {
	Search(ctx context.Context, rawQuery string, k int) ([]candidate.Ranked, error)
}

type headingLister interface {
	List(ctx context.Context) ([]heading.Heading, error)
}

type tweetEmbedder interface {
	Embed(ctx context.Context, id string) (json.RawMessage, error)
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the tweetdex HTTP API.
type Server struct {
	search        searcher
	headings      headingLister
	tweets        tweetEmbedder
	health        healthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search searcher, headings headingLister, tweets tweetEmbedder, health healthChecker) *Server {
	return &Server{
		search:        search,
		headings:      headings,
		tweets:        tweets,
		health:        health,
		errorHandlers: defaultErrorHandlers(),
	}
}

type searchResult struct {
	TweetID     string  `json:"tweet_id"`
	CreatedAt   string  `json:"created_at"`
	Text        string  `json:"text"`
	IsRetweet   bool    `json:"is_retweet"`
	HasMedia    bool    `json:"has_media"`
	FinalScore  float64 `json:"final_score"`
	FTSRank     float64 `json:"fts_rank"`
	SemanticSim float64 `json:"semantic_sim"`
}

type searchResponse struct {
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type headingResponse struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// Search handles GET /api/search?q=&k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", params, &q); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, "missing query parameter 'q'")
		return
	}
	var k *int
	if err := runtime.BindQueryParameter("form", true, false, "k", params, &k); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "query parameter 'k' must be an integer")
		return
	}

	ctx := logger.With(r.Context(), zap.String("query", q), zap.Int("k", derefInt(k)))
	ctx, usage := domain.NewContextWithUsage(ctx)
	ranked, err := s.search.Search(ctx, q, derefInt(k))
	if err != nil {
		s.handleDomainError(w, r.WithContext(ctx), err)
		return
	}

	results := make([]searchResult, len(ranked))
	for i := range ranked {
		results[i] = searchResultFromRanked(&ranked[i])
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}

// Headings handles GET /api/headings.
func (s *Server) Headings(w http.ResponseWriter, r *http.Request) {
	hs, err := s.headings.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := make([]headingResponse, len(hs))
	for i, h := range hs {
		out[i] = headingResponse{Level: h.Level, Text: h.Text}
	}
	writeJSON(w, http.StatusOK, out)
}

// Tweet handles GET /api/tweet/{id} by proxying the embed payload.
func (s *Server) Tweet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logger.With(r.Context(), zap.String("tweet_id", id))

	payload, err := s.tweets.Embed(ctx, id)
	if err != nil {
		status, msg := embedErrorStatus(err)
		log := logger.FromContext(ctx)
		if status >= http.StatusInternalServerError {
			log.Error("Tweet embed failed", zap.Error(err))
		} else {
			log.Debug("Tweet embed rejected", zap.Error(err))
		}
		writeJSON(w, status, embedErrorResponse{Code: status, Message: msg})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

func searchResultFromRanked(r *candidate.Ranked) searchResult {
	return searchResult{
		TweetID:     r.DocumentID,
		CreatedAt:   r.CreatedAtISO(),
		Text:        r.Text,
		IsRetweet:   r.IsRetweet,
		HasMedia:    r.HasMedia,
		FinalScore:  r.FinalScore,
		FTSRank:     r.LexicalRank,
		SemanticSim: r.SemanticSimilarity,
	}
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if n, ok := usage.EmbeddingTokens(); ok {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(n))
	}
	if n, ok := usage.JudgeTokens(); ok {
		w.Header().Set("X-Judge-Tokens", strconv.Itoa(n))
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
