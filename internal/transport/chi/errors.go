package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/logger"
)

// errorCode is the machine-readable code in an error response.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeNotFound          errorCode = "not_found"
	codeInvalidQuery      errorCode = "invalid_query"
	codeInvalidTweetID    errorCode = "invalid_tweet_id"
	codeRateLimited       errorCode = "rate_limited"
	codeStoreUnavailable  errorCode = "store_unavailable"
	codeEmbeddingProvider errorCode = "embedding_provider_error"
	codeJudgeUnavailable  errorCode = "judge_unavailable"
	codeJudgeParse        errorCode = "judge_parse_error"
	codeUpstream          errorCode = "upstream_unavailable"
	codeInternal          errorCode = "internal_error"
)

// Messages of the tweet embed proxy, which answers with numeric codes.
const (
	embedNotFound = "NOT_FOUND"
	embedAPIFail  = "API_FAIL"
	embedBadID    = "BAD_REQUEST"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type embedErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrInvalidTweetID, http.StatusBadRequest, codeInvalidTweetID),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrTweetNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrJudgeParse, http.StatusBadGateway, codeJudgeParse),
		sentinelHandler(domain.ErrJudgeUnavailable, http.StatusBadGateway, codeJudgeUnavailable),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, codeUpstream),
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrInvalidTweetID,
		domain.ErrRateLimited,
		domain.ErrTweetNotFound,
		domain.ErrStoreUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrJudgeParse,
		domain.ErrJudgeUnavailable,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

// embedErrorStatus maps a tweet embed failure to the proxied status and message.
func embedErrorStatus(err error) (int, string) {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrInvalidTweetID):
		return http.StatusBadRequest, embedBadID
	case errors.Is(err, domain.ErrTweetNotFound):
		return http.StatusNotFound, embedNotFound
	case errors.As(err, &upstream):
		return upstream.Status, embedAPIFail
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway, embedAPIFail
	default:
		return http.StatusInternalServerError, embedAPIFail
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
