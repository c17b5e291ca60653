package tweet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
	"github.com/kailas-cloud/tweetdex/internal/logger"
)

// Service serves stored tweets and proxied embed payloads.
type Service struct {
	repo    Repository
	fetcher EmbedFetcher
	cache   EmbedCache
}

// New creates a tweet service. cache may be nil.
func New(repo Repository, fetcher EmbedFetcher, cache EmbedCache) *Service {
	return &Service{repo: repo, fetcher: fetcher, cache: cache}
}

// Get returns a stored tweet.
func (s *Service) Get(ctx context.Context, id string) (domtweet.Tweet, error) {
	if err := domtweet.ValidateID(id); err != nil {
		return domtweet.Tweet{}, fmt.Errorf("%w: %w", domain.ErrInvalidTweetID, err)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domtweet.Tweet{}, fmt.Errorf("get tweet: %w", err)
	}
	return t, nil
}

// Count returns the number of indexed tweets.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count tweets: %w", err)
	}
	return n, nil
}

// Embed returns the upstream embed payload for a tweet, serving successful
// payloads from cache when possible. Failures are never cached.
func (s *Service) Embed(ctx context.Context, id string) (json.RawMessage, error) {
	if err := domtweet.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTweetID, err)
	}

	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, id); ok {
			logger.FromContext(ctx).Debug("Tweet embed cache hit")
			return payload, nil
		}
	}

	payload, err := s.fetcher.Status(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch embed: %w", err)
	}

	if s.cache != nil {
		s.cache.Put(ctx, id, payload)
	}
	return payload, nil
}
