package tweet

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/tweetdex/internal/domain/text"
)

// Tweet is the persisted tweet aggregate (immutable value object).
type Tweet struct {
	id        string
	createdAt time.Time
	text      string
	lang      string
	isRetweet bool
	hasMedia  bool
	embedding []float32
}

// New validates and creates a Tweet.
// ID must be the decimal form of an unsigned 64-bit integer; text and created_at are required.
func New(id string, createdAt time.Time, body, lang string, isRetweet, hasMedia bool) (Tweet, error) {
	if err := ValidateID(id); err != nil {
		return Tweet{}, err
	}
	if createdAt.IsZero() {
		return Tweet{}, fmt.Errorf("created_at is required")
	}
	if body == "" {
		return Tweet{}, fmt.Errorf("text is required")
	}
	return Tweet{
		id:        id,
		createdAt: createdAt.UTC(),
		text:      body,
		lang:      lang,
		isRetweet: isRetweet,
		hasMedia:  hasMedia,
	}, nil
}

// Reconstruct creates a Tweet without validation (storage hydration).
func Reconstruct(
	id string, createdAt time.Time, body, lang string, isRetweet, hasMedia bool, embedding []float32,
) Tweet {
	return Tweet{
		id: id, createdAt: createdAt.UTC(), text: body, lang: lang,
		isRetweet: isRetweet, hasMedia: hasMedia, embedding: embedding,
	}
}

// ValidateID checks that id is a decimal uint64.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("tweet ID is required")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return fmt.Errorf("tweet ID %q must be a decimal unsigned integer", id)
	}
	return nil
}

// ID returns the tweet identifier.
func (t *Tweet) ID() string { return t.id }

// CreatedAt returns the creation time in UTC.
func (t *Tweet) CreatedAt() time.Time { return t.createdAt }

// Text returns the tweet body.
func (t *Tweet) Text() string { return t.text }

// FoldedText returns the searchable form of the body.
func (t *Tweet) FoldedText() string { return text.Fold(t.text) }

// Lang returns the language tag, possibly empty.
func (t *Tweet) Lang() string { return t.lang }

// IsRetweet reports whether the tweet is a retweet.
func (t *Tweet) IsRetweet() bool { return t.isRetweet }

// HasMedia reports whether the tweet carries media.
func (t *Tweet) HasMedia() bool { return t.hasMedia }

// Embedding returns the embedding vector, nil until computed.
func (t *Tweet) Embedding() []float32 { return t.embedding }

// WithEmbedding returns a copy with the embedding set.
func (t Tweet) WithEmbedding(v []float32) Tweet {
	t.embedding = v
	return t
}
