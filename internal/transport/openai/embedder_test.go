package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()
	os.Exit(m.Run())
}

type embeddingRow struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// fakeEmbeddings answers /embeddings with one vector per input, rows reversed so
// clients have to reorder by index. vec builds the vector for input i.
func fakeEmbeddings(t *testing.T, seen *embeddingRequest, vec func(i int) []float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if seen != nil {
			*seen = req
		}

		rows := make([]embeddingRow, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			rows = append(rows, embeddingRow{Object: "embedding", Embedding: vec(i), Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   rows,
			"usage":  map[string]int{"prompt_tokens": 7 * len(req.Input), "total_tokens": 7 * len(req.Input)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestEmbedder(url string, dims int) *Embedder {
	return NewEmbedder(&Config{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "text-embedding-3-large",
		Dimensions: dims,
		Provider:   "openai-test",
		Logger:     zap.NewNop(),
	})
}

func TestEmbedder_EmbedQuery(t *testing.T) {
	var seen embeddingRequest
	srv := fakeEmbeddings(t, &seen, func(int) []float32 { return []float32{0.25, 0.5, 0.75} })

	res, err := newTestEmbedder(srv.URL, 1536).Embed(context.Background(), "inflación en argentina")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 3 || res.Embedding[2] != 0.75 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.PromptTokens != 7 || res.TotalTokens != 7 {
		t.Errorf("usage = %d/%d, want 7/7", res.PromptTokens, res.TotalTokens)
	}
	if seen.Dimensions != 1536 {
		t.Errorf("dimensions sent = %d, want 1536", seen.Dimensions)
	}
	if seen.Model != "text-embedding-3-large" {
		t.Errorf("model sent = %q", seen.Model)
	}
	if len(seen.Input) != 1 || seen.Input[0] != "inflación en argentina" {
		t.Errorf("input sent = %v", seen.Input)
	}
}

func TestEmbedder_OmitsZeroDimensions(t *testing.T) {
	var seen embeddingRequest
	srv := fakeEmbeddings(t, &seen, func(int) []float32 { return []float32{1} })

	if _, err := newTestEmbedder(srv.URL, 0).Embed(context.Background(), "hola"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if seen.Dimensions != 0 {
		t.Errorf("dimensions sent = %d, want omitted", seen.Dimensions)
	}
}

func TestEmbedder_BatchKeepsInputOrder(t *testing.T) {
	srv := fakeEmbeddings(t, nil, func(i int) []float32 { return []float32{float32(i)} })
	emb := newTestEmbedder(srv.URL, 0)

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	for i, v := range res.Embeddings {
		if v[0] != float32(i) {
			t.Errorf("embeddings[%d] = %v, want [%d]", i, v, i)
		}
	}
	if res.TotalTokens != 21 {
		t.Errorf("total tokens = %d, want 21", res.TotalTokens)
	}
	if testutil.CollectAndCount(metrics.EmbeddingBatchInputs) == 0 {
		t.Error("expected batch size observation")
	}
}

func TestEmbedder_BatchEmptySkipsRequest(t *testing.T) {
	res, err := newTestEmbedder("http://127.0.0.1:1", 0).BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected no embeddings, got %v", res.Embeddings)
	}
}

func TestEmbedder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
			},
			wantMsg: "rate limit exceeded",
		},
		{
			name: "detail body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"detail":"input too long"}`))
			},
			wantMsg: "input too long",
		},
		{
			name: "fewer rows than inputs",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[0.1],"index":0}]}`))
			},
			wantMsg: "expected 2 embeddings, got 1",
		},
		{
			name: "empty vector",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"object":"list","data":[` +
					`{"object":"embedding","embedding":[0.1],"index":0},` +
					`{"object":"embedding","embedding":[],"index":1}]}`))
			},
			wantMsg: "empty embedding at index 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestEmbedder(srv.URL, 0).BatchEmbed(context.Background(), []string{"a", "b"})
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"bad input"}`, "bad input"},
		{`{"error":{"message":"no quota"}}`, "no quota"},
		{`not json`, ""},
		{`{"detail":"","error":{"message":""}}`, ""},
	}
	for _, tt := range tests {
		if got := extractDetail([]byte(tt.body)); got != tt.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
