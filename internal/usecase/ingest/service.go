package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	domtweet "github.com/kailas-cloud/tweetdex/internal/domain/tweet"
	"github.com/kailas-cloud/tweetdex/internal/metrics"
)

// Defaults for Config.
const (
	DefaultBatchSize = 5000
	DefaultWorkers   = 2
)

// Repository persists tweets.
type Repository interface {
	Upsert(ctx context.Context, tweets []domtweet.Tweet) error
}

// Config tunes ingestion.
type Config struct {
	BatchSize int
	Workers   int
}

// Result summarizes an ingestion run.
type Result struct {
	Lines    int
	Ingested int
	Skipped  int
}

// Service loads tweet archives: each batch is embedded and upserted on a worker pool.
type Service struct {
	repo   Repository
	embed  domain.BatchEmbedder
	cfg    Config
	logger *zap.Logger
}

// New creates an ingestion service.
func New(repo Repository, embed domain.BatchEmbedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Service{repo: repo, embed: embed, cfg: cfg, logger: logger}
}

// IngestJSONL reads one raw tweet per line. Blank lines are ignored; malformed
// or incomplete rows are skipped and counted. The first failing batch cancels
// the remaining work and its error is returned.
func (s *Service) IngestJSONL(ctx context.Context, r io.Reader) (Result, error) {
	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return Result{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		ingested atomic.Int64
		res      Result
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	submit := func(batch []domtweet.Tweet) {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := s.processBatch(ctx, batch); err != nil {
				fail(err)
				return
			}
			total := ingested.Add(int64(len(batch)))
			s.logger.Info("Ingested batch", zap.Int("batch_size", len(batch)), zap.Int64("total", total))
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch: %w", err))
		}
	}

	start := time.Now()
	br := bufio.NewReader(r)
	batch := make([]domtweet.Tweet, 0, s.cfg.BatchSize)

	for ctx.Err() == nil {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			fail(fmt.Errorf("read input: %w", readErr))
			break
		}

		if line = bytes.TrimSpace(line); len(line) > 0 {
			res.Lines++
			t, err := parseLine(line)
			if err != nil {
				res.Skipped++
				s.logger.Debug("Skipping row", zap.Int("line", res.Lines), zap.Error(err))
			} else {
				batch = append(batch, t)
			}
		}

		if len(batch) >= s.cfg.BatchSize {
			submit(batch)
			batch = make([]domtweet.Tweet, 0, s.cfg.BatchSize)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
	}
	if len(batch) > 0 && ctx.Err() == nil {
		submit(batch)
	}

	wg.Wait()

	res.Ingested = int(ingested.Load())
	metrics.IngestRowsTotal.WithLabelValues("ingested").Add(float64(res.Ingested))
	metrics.IngestRowsTotal.WithLabelValues("skipped").Add(float64(res.Skipped))

	if firstErr != nil {
		return res, firstErr
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("ingest cancelled: %w", err)
	}

	s.logger.Info("Ingest complete",
		zap.Int("lines", res.Lines),
		zap.Int("ingested", res.Ingested),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (s *Service) processBatch(ctx context.Context, batch []domtweet.Tweet) error {
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].Text()
	}

	emb, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch of %d: %w", len(batch), err)
	}
	if len(emb.Embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, len(batch), len(emb.Embeddings))
	}

	tweets := make([]domtweet.Tweet, len(batch))
	for i := range batch {
		tweets[i] = batch[i].WithEmbedding(emb.Embeddings[i])
	}

	if err := s.repo.Upsert(ctx, tweets); err != nil {
		return fmt.Errorf("upsert batch of %d: %w", len(batch), err)
	}
	return nil
}
