// Package embcache caches text embeddings in Redis, optionally fronted by an
// in-process LRU for hot search queries.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/db"
	"github.com/kailas-cloud/tweetdex/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// Cache lookup outcomes, used as the "result" label of the cache counter.
const (
	resultLocalHit = "local_hit"
	resultHit      = "hit"
	resultMiss     = "miss"
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	SetMulti(ctx context.Context, items []db.KVItem, ttl time.Duration) error
}

// Options configures a CachedEmbedder.
type Options struct {
	// Model and Dimensions scope keys; a vector cached under another size is never served.
	Model      string
	Dimensions int
	// TTL of Redis entries; zero keeps them forever.
	TTL time.Duration
	// LocalSize bounds the in-process LRU; zero disables it.
	LocalSize int
	// CacheTotal counts lookups by "result" label; nil disables counting.
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// CachedEmbedder serves embeddings from cache and embeds only misses.
// Cache failures degrade to calling the provider; they never fail a request.
type CachedEmbedder struct {
	inner domain.Embedder
	batch domain.BatchEmbedder
	store store
	local *lru.Cache[string, []float32]
	opts  Options
}

// New creates a caching decorator around inner.
func New(inner domain.Embedder, s store, opts Options) (*CachedEmbedder, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &CachedEmbedder{
		inner: inner,
		batch: domain.AsBatchEmbedder(inner),
		store: s,
		opts:  opts,
	}
	if opts.LocalSize > 0 {
		local, err := lru.New[string, []float32](opts.LocalSize)
		if err != nil {
			return nil, fmt.Errorf("local embedding cache: %w", err)
		}
		c.local = local
	}
	return c, nil
}

// Embed returns a cached vector with zero token usage, or the provider's result on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.lookupLocal(key); ok {
		c.count(resultLocalHit, 1)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	if vec, ok := c.lookupStore(ctx, key); ok {
		c.count(resultHit, 1)
		c.remember(key, vec)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count(resultMiss, 1)

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.remember(key, result.Embedding)
	c.persist(ctx, []db.KVItem{{Key: key, Value: encodeVector(result.Embedding)}})
	return result, nil
}

// BatchEmbed serves cached vectors and embeds only the misses, in one inner call.
// Token counts cover the misses only. Ingest batches bypass the local LRU.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
	}

	cached, err := c.store.GetMulti(ctx, keys)
	if err != nil {
		c.opts.Logger.Warn("Embedding cache read failed", zap.Int("count", len(keys)), zap.Error(err))
		cached = nil
	}

	out := make([][]float32, len(texts))
	var misses []int
	for i := range texts {
		if i < len(cached) {
			if vec, err := decodeVector(cached[i]); err == nil {
				out[i] = vec
				continue
			}
		}
		misses = append(misses, i)
	}
	c.count(resultHit, len(texts)-len(misses))
	c.count(resultMiss, len(misses))

	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	missTexts := make([]string, len(misses))
	for j, i := range misses {
		missTexts[j] = texts[i]
	}
	res, err := c.batch.BatchEmbed(ctx, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed %d texts: %w", len(missTexts), err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, len(missTexts), len(res.Embeddings))
	}

	items := make([]db.KVItem, len(misses))
	for j, i := range misses {
		out[i] = res.Embeddings[j]
		items[j] = db.KVItem{Key: keys[i], Value: encodeVector(res.Embeddings[j])}
	}
	c.persist(ctx, items)

	return domain.BatchEmbeddingResult{
		Embeddings:   out,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(c.opts.Dimensions)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) lookupLocal(key string) ([]float32, bool) {
	if c.local == nil {
		return nil, false
	}
	return c.local.Get(key)
}

func (c *CachedEmbedder) remember(key string, vec []float32) {
	if c.local != nil && len(vec) > 0 {
		c.local.Add(key, vec)
	}
}

func (c *CachedEmbedder) lookupStore(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.opts.Logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	vec, err := decodeVector(data)
	if err != nil {
		c.opts.Logger.Warn("Discarding corrupt cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) persist(ctx context.Context, items []db.KVItem) {
	if err := c.store.SetMulti(ctx, items, c.opts.TTL); err != nil {
		c.opts.Logger.Warn("Embedding cache write failed", zap.Int("count", len(items)), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string, n int) {
	if c.opts.CacheTotal != nil && n > 0 {
		c.opts.CacheTotal.WithLabelValues(result).Add(float64(n))
	}
}
