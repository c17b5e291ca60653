package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single request.
// The handler puts a pointer into the context before calling the service;
// the embedding and judge paths write to it, possibly from different goroutines.
type Usage struct {
	mu              sync.Mutex
	embeddingTokens int
	judgeTokens     int
	embedded        bool
	judged          bool
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens spent on embeddings. A zero count still marks
// the embedder as used (cache hits report no tokens).
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.embedded = true
	u.mu.Unlock()
}

// AddJudgeTokens records tokens spent on the relevance judge.
func (u *Usage) AddJudgeTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.judgeTokens += n
	u.judged = true
	u.mu.Unlock()
}

// EmbeddingTokens reports embedding tokens and whether the embedder ran at all.
func (u *Usage) EmbeddingTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.embedded
}

// JudgeTokens reports judge tokens and whether the judge ran at all.
func (u *Usage) JudgeTokens() (int, bool) {
	if u == nil {
		return 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.judgeTokens, u.judged
}
