package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals an empty or malformed search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrTweetNotFound signals a tweet that neither the store nor the upstream knows.
	ErrTweetNotFound = errors.New("tweet not found")
	// ErrInvalidTweetID signals a tweet ID that is not a decimal unsigned integer.
	ErrInvalidTweetID = errors.New("invalid tweet id")

	// ErrStoreUnavailable signals a failed lexical or vector query against the store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrJudgeUnavailable signals a transport or HTTP failure calling the relevance judge.
	ErrJudgeUnavailable = errors.New("relevance judge unavailable")
	// ErrJudgeParse signals a judge response that could not be interpreted.
	ErrJudgeParse = errors.New("relevance judge response unparseable")
	// ErrUpstreamUnavailable signals a failure of a third-party HTTP upstream (tweet embeds, headings).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError carries the HTTP status returned by a third-party upstream.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d", ErrUpstreamUnavailable.Error(), e.Status)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }

// NewUpstreamError creates an upstream error for the given HTTP status.
func NewUpstreamError(status int) error {
	return &UpstreamError{Status: status}
}
