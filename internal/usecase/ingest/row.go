package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

// createdAtLayouts are the timestamp formats accepted in tweet_created_at.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate, // Twitter API v1.1: "Wed Oct 10 20:19:24 +0000 2018"
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// rawTweet is one line of a tweet archive export.
type rawTweet struct {
	IDStr           string          `json:"id_str"`
	FullText        string          `json:"full_text"`
	CreatedAt       string          `json:"tweet_created_at"`
	Lang            *string         `json:"lang"`
	RetweetedStatus json.RawMessage `json:"retweeted_status"`
	Entities        *struct {
		Media json.RawMessage `json:"media"`
	} `json:"entities"`
}

// parseLine decodes a JSONL line into a tweet without embedding.
func parseLine(line []byte) (domtweet.Tweet, error) {
	var raw rawTweet
	if err := json.Unmarshal(line, &raw); err != nil {
		return domtweet.Tweet{}, fmt.Errorf("decode: %w", err)
	}
	if raw.IDStr == "" || raw.FullText == "" || raw.CreatedAt == "" {
		return domtweet.Tweet{}, fmt.Errorf("missing id_str, full_text or tweet_created_at")
	}
	createdAt, err := parseCreatedAt(raw.CreatedAt)
	if err != nil {
		return domtweet.Tweet{}, err
	}

	var lang string
	if raw.Lang != nil {
		lang = *raw.Lang
	}

	t, err := domtweet.New(raw.IDStr, createdAt, raw.FullText, lang, isRetweet(raw.RetweetedStatus), hasMedia(&raw))
	if err != nil {
		return domtweet.Tweet{}, fmt.Errorf("tweet %s: %w", raw.IDStr, err)
	}
	return t, nil
}

func parseCreatedAt(s string) (time.Time, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable tweet_created_at %q", s)
}

// isRetweet is true when retweeted_status is present and truthy.
func isRetweet(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch string(v) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}

func hasMedia(raw *rawTweet) bool {
	if raw.Entities == nil || len(raw.Entities.Media) == 0 {
		return false
	}
	var media []json.RawMessage
	if err := json.Unmarshal(raw.Entities.Media, &media); err != nil {
		return false
	}
	return len(media) > 0
}
