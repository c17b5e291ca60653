// Package app is the composition root shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/config"
	dbRedis "github.com/kailas-cloud/tweetdex/internal/db/redis"
	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/metrics"
	"github.com/kailas-cloud/tweetdex/internal/ratelimit"
	"github.com/kailas-cloud/tweetdex/internal/repository/embcache"
	tweetrepo "github.com/kailas-cloud/tweetdex/internal/repository/tweet"
	"github.com/kailas-cloud/tweetdex/internal/repository/tweetcache"
	"github.com/kailas-cloud/tweetdex/internal/transport/fxtwitter"
	openaiTransport "github.com/kailas-cloud/tweetdex/internal/transport/openai"
	"github.com/kailas-cloud/tweetdex/internal/transport/scraper"
	embeddinguc "github.com/kailas-cloud/tweetdex/internal/usecase/embedding"
	headingsuc "github.com/kailas-cloud/tweetdex/internal/usecase/headings"
	healthuc "github.com/kailas-cloud/tweetdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/tweetdex/internal/usecase/ingest"
	searchuc "github.com/kailas-cloud/tweetdex/internal/usecase/search"
	tweetuc "github.com/kailas-cloud/tweetdex/internal/usecase/tweet"
)

// App holds the wired services.
type App struct {
	Store    *dbRedis.Store
	Tweets   *tweetrepo.Repo
	Search   *searchuc.Service
	Ingest   *ingestuc.Service
	TweetSvc *tweetuc.Service
	Headings *headingsuc.Service
	Health   *healthuc.Service
	Limiter  *ratelimit.Limiter
}

// New connects to Redis and assembles every service from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Database.Addrs,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		DB:          cfg.Database.DB,
		DialTimeout: seconds(cfg.Database.DialTimeoutSec),
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := store.WaitForReady(ctx, seconds(cfg.Database.ReadinessTimeout)); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder, err := buildEmbedder(baseEmbedder, store, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	judge := openaiTransport.NewJudge(&openaiTransport.JudgeConfig{
		Config: openaiTransport.Config{
			APIKey:  cfg.Judge.APIKey,
			BaseURL: cfg.Judge.BaseURL,
			Model:   cfg.Judge.Model,
			Logger:  logger,
		},
		MaxTokens:   cfg.Judge.MaxTokens,
		Temperature: cfg.Judge.Temperature,
	})
	logger.Info("Providers configured",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("judge_model", cfg.Judge.Model),
	)

	repo := tweetrepo.New(store, cfg.Embedding.Dimensions).WithHNSW(tweetrepo.HNSWConfig{
		M:           cfg.Storage.HNSWM,
		EFConstruct: cfg.Storage.HNSWEFConstruct,
		EFRuntime:   cfg.Storage.HNSWEFRuntime,
	})

	w := cfg.Search.Weights
	searchSvc := searchuc.New(repo, embedder, judge, searchuc.Config{
		CandidateLimit:          cfg.Search.CandidateLimit,
		MaxK:                    cfg.Search.MaxK,
		StoreTimeout:            seconds(cfg.Search.StoreTimeoutSec),
		EmbedTimeout:            seconds(cfg.Embedding.TimeoutSec),
		JudgeTimeout:            seconds(cfg.Judge.TimeoutSec),
		DegradeOnEmbeddingError: cfg.Search.DegradeOnEmbeddingError,
		Weights: searchuc.Weights{
			Judge:          w.Judge,
			Lexical:        w.Lexical,
			Semantic:       w.Semantic,
			Recency:        w.Recency,
			RetweetPenalty: w.RetweetPenalty,
		},
	})

	ingestSvc := ingestuc.New(repo, embedder, ingestuc.Config{
		BatchSize: cfg.Ingest.BatchSize,
		Workers:   cfg.Ingest.Workers,
	}, logger)

	fetcher := fxtwitter.New(fxtwitter.Config{
		BaseURL:   cfg.Tweets.BaseURL,
		UserAgent: cfg.Tweets.UserAgent,
		Timeout:   seconds(cfg.Tweets.TimeoutSec),
		Logger:    logger,
	})
	var embedCache tweetuc.EmbedCache
	if cfg.Tweets.CacheTTLSec > 0 {
		embedCache = tweetcache.New(store, seconds(cfg.Tweets.CacheTTLSec), logger)
	}
	tweetSvc := tweetuc.New(repo, fetcher, embedCache)

	headingsSvc := headingsuc.New(
		scraper.New(cfg.Headings.URL, seconds(cfg.Headings.TimeoutSec)),
		seconds(cfg.Headings.RefreshSec),
		logger,
	)

	limiter, err := ratelimit.New(ratelimit.Config{
		Requests:   cfg.RateLimit.Requests,
		Window:     seconds(cfg.RateLimit.WindowSec),
		MaxClients: cfg.RateLimit.MaxClients,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	return &App{
		Store:    store,
		Tweets:   repo,
		Search:   searchSvc,
		Ingest:   ingestSvc,
		TweetSvc: tweetSvc,
		Headings: headingsSvc,
		Health:   healthuc.New(store, baseEmbedder, judge),
		Limiter:  limiter,
	}, nil
}

// Close releases the Redis connection.
func (a *App) Close() {
	a.Store.Close()
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	base *openaiTransport.Embedder,
	store *dbRedis.Store,
	cfg *config.Config,
	logger *zap.Logger,
) (*embeddinguc.InstrumentedEmbedder, error) {
	var embedder domain.Embedder = base
	if cfg.Embedding.Cache.IsEnabled() {
		cached, err := embcache.New(base, store, embcache.Options{
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			TTL:        seconds(cfg.Embedding.Cache.TTLSec),
			LocalSize:  cfg.Embedding.Cache.LocalSize,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		embedder = cached
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, embeddinguc.InstrumentedConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		ChunkSize:  cfg.Embedding.BatchSize,
		Dimensions: cfg.Embedding.Dimensions,
	}, logger), nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
