package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/tweetdex/internal/db"
	"github.com/kailas-cloud/tweetdex/internal/domain"
)

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

func TestEmbed_MissStoresWithTTL(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 10}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{TTL: time.Hour})

	var stored []db.KVItem
	var ttl time.Duration
	ms.setMultiFn = func(_ context.Context, items []db.KVItem, d time.Duration) error {
		stored, ttl = items, d
		return nil
	}

	res, err := ce.Embed(context.Background(), "dólar blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 10 || res.Embedding[0] != 0.1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(stored) != 1 || !strings.HasPrefix(stored[0].Key, "tweetdex:emb_cache:") {
		t.Fatalf("expected one entry under emb_cache prefix, got %+v", stored)
	}
	if ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}
}

func TestEmbed_StoreHitCostsNoTokens(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("must not be called")}
	ce, ms := newTestCachedEmbedder(t, inner, Options{CacheTotal: newCounter()})
	ms.getFn = func(context.Context, string) ([]byte, error) {
		return encodeVector([]float32{0.4, 0.5}), nil
	}

	res, err := ce.Embed(context.Background(), "dólar blue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalTokens != 0 || res.Embedding[0] != 0.4 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := testutil.ToFloat64(ce.opts.CacheTotal.WithLabelValues(resultHit)); got != 1 {
		t.Errorf("hit count = %v, want 1", got)
	}
}

func TestEmbed_LocalTierSkipsStore(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.9}, TotalTokens: 4}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{LocalSize: 8, CacheTotal: newCounter()})

	for range 3 {
		if _, err := ce.Embed(context.Background(), "paro general"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("provider calls = %d, want 1", inner.calls)
	}
	if ms.gets != 1 {
		t.Errorf("store reads = %d, want 1", ms.gets)
	}
	if got := testutil.ToFloat64(ce.opts.CacheTotal.WithLabelValues(resultLocalHit)); got != 2 {
		t.Errorf("local hits = %v, want 2", got)
	}
}

func TestEmbed_StoreHitWarmsLocalTier(t *testing.T) {
	ce, ms := newTestCachedEmbedder(t, &mockEmbedder{err: errors.New("unused")}, Options{LocalSize: 8})
	ms.getFn = func(context.Context, string) ([]byte, error) { return encodeVector([]float32{1}), nil }

	for range 2 {
		if _, err := ce.Embed(context.Background(), "q"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ms.gets != 1 {
		t.Errorf("store reads = %d, want 1", ms.gets)
	}
}

func TestEmbed_CorruptEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.7}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte{1, 2, 3}, nil }

	res, err := ce.Embed(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedding[0] != 0.7 {
		t.Errorf("expected provider vector, got %v", res.Embedding)
	}
}

func TestEmbed_ProviderErrorNotCached(t *testing.T) {
	providerErr := errors.New("provider down")
	inner := &mockEmbedder{err: providerErr}
	ce, ms := newTestCachedEmbedder(t, inner, Options{LocalSize: 4})
	ms.setMultiFn = func(context.Context, []db.KVItem, time.Duration) error {
		t.Error("failures must not be cached")
		return nil
	}

	for range 2 {
		if _, err := ce.Embed(context.Background(), "x"); !errors.Is(err, providerErr) {
			t.Fatalf("expected wrapped provider error, got %v", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("provider calls = %d, want 2", inner.calls)
	}
}

func TestCacheKey_ScopedByModelAndDimensions(t *testing.T) {
	a, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{Model: "model-a", Dimensions: 1536})
	b, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{Model: "model-b", Dimensions: 1536})
	c, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{Model: "model-a", Dimensions: 3072})
	if a.cacheKey("hola") == b.cacheKey("hola") {
		t.Error("expected different keys per model")
	}
	if a.cacheKey("hola") == c.cacheKey("hola") {
		t.Error("expected different keys per dimensions")
	}
	if a.cacheKey("hola") != a.cacheKey("hola") {
		t.Error("expected stable keys")
	}
}

func TestBatchEmbed_EmbedsOnlyMisses(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}, TotalTokens: 3}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{CacheTotal: newCounter()})
	ms.getMultiFn = func(_ context.Context, keys []string) ([][]byte, error) {
		out := make([][]byte, len(keys))
		out[1] = encodeVector([]float32{0.9})
		return out, nil
	}
	var stored []db.KVItem
	ms.setMultiFn = func(_ context.Context, items []db.KVItem, _ time.Duration) error {
		stored = items
		return nil
	}

	res, err := ce.BatchEmbed(context.Background(), []string{"miss1", "hit1", "miss2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings[0][0] != 0.5 || res.Embeddings[1][0] != 0.9 || res.Embeddings[2][0] != 0.5 {
		t.Errorf("unexpected embeddings %v", res.Embeddings)
	}
	if strings.Join(inner.batchTexts, ",") != "miss1,miss2" {
		t.Errorf("provider saw %v, want only misses", inner.batchTexts)
	}
	if res.TotalTokens != 6 {
		t.Errorf("total tokens = %d, want 6", res.TotalTokens)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d entries, want 2", len(stored))
	}
	counter := ce.opts.CacheTotal
	if got := testutil.ToFloat64(counter.WithLabelValues(resultHit)); got != 1 {
		t.Errorf("hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues(resultMiss)); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
}

func TestBatchEmbed_AllHitsSkipProvider(t *testing.T) {
	inner := &mockEmbedder{}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ms.getMultiFn = func(_ context.Context, keys []string) ([][]byte, error) {
		out := make([][]byte, len(keys))
		for i := range out {
			out[i] = encodeVector([]float32{0.8})
		}
		return out, nil
	}

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 0 || inner.batchCalls != 0 {
		t.Errorf("expected cached vectors only, got %+v (calls %d)", res, inner.batchCalls)
	}
}

func TestBatchEmbed_CacheOutageStillEmbeds(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5}}}
	ce, ms := newTestCachedEmbedder(t, inner, Options{})
	ms.getMultiFn = func(context.Context, []string) ([][]byte, error) { return nil, errors.New("conn reset") }
	ms.setMultiFn = func(context.Context, []db.KVItem, time.Duration) error { return errors.New("conn reset") }

	res, err := ce.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("cache outage must not fail the batch: %v", err)
	}
	if len(res.Embeddings) != 2 || len(inner.batchTexts) != 2 {
		t.Errorf("expected both texts embedded, got %v", inner.batchTexts)
	}
}

func TestBatchEmbed_ProviderError(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{batchErr: errors.New("api down")}, Options{})
	if _, err := ce.BatchEmbed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	ce, _ := newTestCachedEmbedder(t, &mockEmbedder{}, Options{})
	res, err := ce.BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Fatalf("expected empty result, got %+v, %v", res, err)
	}
}

func TestCodec(t *testing.T) {
	in := []float32{0, -1.5, 3.25}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
	for _, bad := range [][]byte{nil, {1, 2, 3}} {
		if _, err := decodeVector(bad); err == nil {
			t.Errorf("decodeVector(%v) should fail", bad)
		}
	}
}
