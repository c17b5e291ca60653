package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/logger"
)

// DefaultMaxAPIBatchSize is the maximum number of inputs sent in one API request.
const DefaultMaxAPIBatchSize = 1000

// InstrumentedConfig describes the embedder being wrapped.
type InstrumentedConfig struct {
	Provider string
	Model    string
	// ChunkSize caps inputs per provider call; <= 0 selects DefaultMaxAPIBatchSize.
	ChunkSize int
	// Dimensions, when positive, is the vector length the tweet index was created with.
	Dimensions int
}

// InstrumentedEmbedder wraps an embedder with chunking, dimension checks and usage accounting.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	batch  domain.BatchEmbedder
	cfg    InstrumentedConfig
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. Request-scoped loggers on the context take precedence over l.
func NewInstrumentedEmbedder(inner domain.Embedder, cfg InstrumentedConfig, l *zap.Logger) *InstrumentedEmbedder {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEmbedder{
		inner:  inner,
		batch:  domain.AsBatchEmbedder(inner),
		cfg:    cfg,
		logger: l,
	}
}

// Embed embeds one query and records its tokens on the request usage.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	log := p.log(ctx)

	result, err := p.inner.Embed(ctx, text)
	if err == nil {
		err = p.checkDims(result.Embedding)
	}
	if err != nil {
		log.Error("Embedding request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)
	log.Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed splits texts into provider-sized chunks; any failing chunk fails the batch.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	result, err := p.embedChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)
	p.log(ctx).Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

func (p *InstrumentedEmbedder) embedChunked(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.cfg.ChunkSize {
		chunk := texts[offset:min(offset+p.cfg.ChunkSize, len(texts))]

		res, err := p.batch.BatchEmbed(ctx, chunk)
		if err == nil {
			err = p.checkChunk(res, len(chunk))
		}
		if err != nil {
			p.log(ctx).Error("Batch embedding request failed",
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed (chunk %d): %w", offset, err)
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}
	return out, nil
}

func (p *InstrumentedEmbedder) checkChunk(res domain.BatchEmbeddingResult, want int) error {
	if len(res.Embeddings) != want {
		return fmt.Errorf("%w: expected %d embeddings, got %d",
			domain.ErrEmbeddingProviderError, want, len(res.Embeddings))
	}
	for _, v := range res.Embeddings {
		if err := p.checkDims(v); err != nil {
			return err
		}
	}
	return nil
}

// checkDims rejects vectors the HNSW field would refuse or silently skip.
func (p *InstrumentedEmbedder) checkDims(v []float32) error {
	if p.cfg.Dimensions > 0 && len(v) != p.cfg.Dimensions {
		return fmt.Errorf("%w: expected %d dimensions, got %d",
			domain.ErrEmbeddingProviderError, p.cfg.Dimensions, len(v))
	}
	return nil
}

func (p *InstrumentedEmbedder) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, p.logger).With(
		zap.String("provider", p.cfg.Provider),
		zap.String("model", p.cfg.Model),
	)
}
