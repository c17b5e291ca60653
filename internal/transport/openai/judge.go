package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/judge"
	"github.com/kailas-cloud/tweetdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/tweetdex/internal/metrics"
)

// DefaultJudgeMaxTokens caps the judge reply length.
const DefaultJudgeMaxTokens = 600

// JudgeConfig holds the chat-completion settings for the relevance judge.
type JudgeConfig struct {
	Config
	MaxTokens   int
	Temperature float32
}

// Judge scores candidates through an OpenAI-compatible chat completion (e.g. OpenRouter).
// It never retries: one request per call.
type Judge struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	logger      *zap.Logger
}

// NewJudge creates a relevance judge client.
func NewJudge(cfg *JudgeConfig) *Judge {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultJudgeMaxTokens
	}
	return &Judge{
		client:      newClient(&cfg.Config),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		user:        cfg.User,
		logger:      cfg.Logger,
	}
}

// Judge returns a score per candidate ordinal. Transport failures and non-2xx
// statuses map to domain.ErrJudgeUnavailable, unusable replies to domain.ErrJudgeParse.
func (j *Judge) Judge(ctx context.Context, query string, candidates []candidate.Candidate) (judge.Scores, error) {
	if len(candidates) == 0 {
		return judge.Scores{}, nil
	}

	prompt, err := judge.UserPrompt(query, candidates)
	if err != nil {
		return nil, fmt.Errorf("build judge prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judge.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         j.temperature,
		MaxCompletionTokens: j.maxTokens,
		User:                j.user,
	}

	start := time.Now()
	resp, err := j.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		j.recordError("api_error")
		return nil, wrapAPIError("judge", err, domain.ErrJudgeUnavailable)
	}

	metrics.JudgeRequestsTotal.WithLabelValues(j.model, "success").Inc()
	metrics.JudgeRequestDuration.WithLabelValues(j.model).Observe(duration.Seconds())
	domain.UsageFromContext(ctx).AddJudgeTokens(resp.Usage.TotalTokens)

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	scores, err := judge.Parse(content)
	if err != nil {
		metrics.JudgeErrorsTotal.WithLabelValues(j.model, "parse_error").Inc()
		j.logger.Warn("Unparseable judge reply",
			zap.String("model", j.model),
			zap.Int("reply_length", len(content)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("parse judge reply: %w", err)
	}

	scored := 0
	for i := range candidates {
		if _, ok := scores[candidates[i].Ordinal]; ok {
			scored++
		}
	}
	metrics.JudgeEntriesTotal.WithLabelValues("scored").Add(float64(scored))
	metrics.JudgeEntriesTotal.WithLabelValues("missing").Add(float64(len(candidates) - scored))

	j.logger.Debug("Judge request completed",
		zap.String("model", j.model),
		zap.Duration("duration", duration),
		zap.Int("candidates", len(candidates)),
		zap.Int("scored", scored),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return scores, nil
}

func (j *Judge) recordError(errorType string) {
	metrics.JudgeRequestsTotal.WithLabelValues(j.model, "error").Inc()
	metrics.JudgeErrorsTotal.WithLabelValues(j.model, errorType).Inc()
}

// HealthCheck verifies API availability via ListModels.
func (j *Judge) HealthCheck(ctx context.Context) error {
	if _, err := j.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
