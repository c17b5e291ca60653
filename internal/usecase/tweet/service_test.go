package tweet

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
)

type mockRepo struct {
	tweet domtweet.Tweet
	count int
	err   error
}

func (m *mockRepo) Get(_ context.Context, _ string) (domtweet.Tweet, error) {
	return m.tweet, m.err
}

func (m *mockRepo) Count(_ context.Context) (int, error) {
	return m.count, m.err
}

type mockFetcher struct {
	payload json.RawMessage
	err     error
	calls   int
}

func (m *mockFetcher) Status(_ context.Context, _ string) (json.RawMessage, error) {
	m.calls++
	return m.payload, m.err
}

type mockCache struct {
	data map[string]json.RawMessage
}

func (m *mockCache) Get(_ context.Context, id string) (json.RawMessage, bool) {
	v, ok := m.data[id]
	return v, ok
}

func (m *mockCache) Put(_ context.Context, id string, payload json.RawMessage) {
	m.data[id] = payload
}

func TestEmbed_FetchesAndCaches(t *testing.T) {
	f := &mockFetcher{payload: json.RawMessage(`{"tweet":{"id":"5"}}`)}
	c := &mockCache{data: map[string]json.RawMessage{}}
	svc := New(&mockRepo{}, f, c)

	for range 2 {
		got, err := svc.Embed(context.Background(), "5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"tweet":{"id":"5"}}` {
			t.Errorf("unexpected payload: %s", got)
		}
	}
	if f.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", f.calls)
	}
}

func TestEmbed_InvalidID(t *testing.T) {
	f := &mockFetcher{}
	svc := New(&mockRepo{}, f, nil)

	_, err := svc.Embed(context.Background(), "12a")
	if !errors.Is(err, domain.ErrInvalidTweetID) {
		t.Fatalf("expected ErrInvalidTweetID, got %v", err)
	}
	if f.calls != 0 {
		t.Error("upstream must not be called for an invalid id")
	}
}

func TestEmbed_ErrorsNotCached(t *testing.T) {
	f := &mockFetcher{err: domain.ErrTweetNotFound}
	c := &mockCache{data: map[string]json.RawMessage{}}
	svc := New(&mockRepo{}, f, c)

	_, err := svc.Embed(context.Background(), "9")
	if !errors.Is(err, domain.ErrTweetNotFound) {
		t.Fatalf("expected ErrTweetNotFound, got %v", err)
	}
	if len(c.data) != 0 {
		t.Error("failures must not be cached")
	}
}

func TestGet(t *testing.T) {
	stored := domtweet.Reconstruct("7", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "hola", "es", false, false, nil)
	svc := New(&mockRepo{tweet: stored}, &mockFetcher{}, nil)

	got, err := svc.Get(context.Background(), "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != "7" || got.Text() != "hola" {
		t.Errorf("unexpected tweet: %s %q", got.ID(), got.Text())
	}

	if _, err := svc.Get(context.Background(), "-1"); !errors.Is(err, domain.ErrInvalidTweetID) {
		t.Errorf("expected ErrInvalidTweetID, got %v", err)
	}
}

func TestCount(t *testing.T) {
	svc := New(&mockRepo{count: 12}, &mockFetcher{}, nil)
	n, err := svc.Count(context.Background())
	if err != nil || n != 12 {
		t.Errorf("expected 12, got %d (%v)", n, err)
	}
}
