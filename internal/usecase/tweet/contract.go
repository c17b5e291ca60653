package tweet

import (
	"context"
	"encoding/json"

	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

// Repository reads stored tweets.
type Repository interface {
	Get(ctx context.Context, id string) (domtweet.Tweet, error)
	Count(ctx context.Context) (int, error)
}

// EmbedFetcher fetches embed payloads from the upstream API.
type EmbedFetcher interface {
	Status(ctx context.Context, id string) (json.RawMessage, error)
}

// EmbedCache caches embed payloads.
type EmbedCache interface {
	Get(ctx context.Context, id string) (json.RawMessage, bool)
	Put(ctx context.Context, id string, payload json.RawMessage)
}
