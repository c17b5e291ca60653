package headings

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/tweetdex/internal/domain/heading"
)

// DefaultRefresh is how long scraped headings are served before the page is fetched again.
const DefaultRefresh = 10 * time.Minute

const cacheKey = "headings"

// Source scrapes headings from the configured page.
type Source interface {
	Headings(ctx context.Context) ([]heading.Heading, error)
}

// Service serves headings from a short-lived cache; concurrent misses share one scrape.
type Service struct {
	source Source
	cache  *expirable.LRU[string, []heading.Heading]
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a headings service refreshing every refresh interval.
func New(source Source, refresh time.Duration, logger *zap.Logger) *Service {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Service{
		source: source,
		cache:  expirable.NewLRU[string, []heading.Heading](1, nil, refresh),
		logger: logger,
	}
}

// List returns the current headings.
func (s *Service) List(ctx context.Context) ([]heading.Heading, error) {
	if hs, ok := s.cache.Get(cacheKey); ok {
		return hs, nil
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		hs, err := s.source.Headings(ctx)
		if err != nil {
			return nil, err
		}
		if hs == nil {
			hs = []heading.Heading{}
		}
		s.cache.Add(cacheKey, hs)
		s.logger.Debug("Headings refreshed", zap.Int("count", len(hs)))
		return hs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape headings: %w", err)
	}
	return v.([]heading.Heading), nil
}
