package fxtwitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
)

// Defaults for Config.
const (
	DefaultBaseURL   = "https://api.fxtwitter.com"
	DefaultUserAgent = "BusqueBusqued/1.0"
	DefaultTimeout   = 10 * time.Second

	maxPayloadBytes = 4 << 20
)

// Config holds the embed API settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// Client fetches tweet embed payloads from an FxTwitter-compatible API.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *zap.Logger
}

// New creates an embed API client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// Status returns the raw JSON payload for a tweet.
// A 404 maps to domain.ErrTweetNotFound, other non-2xx statuses to *domain.UpstreamError,
// transport failures and non-JSON bodies to domain.ErrUpstreamUnavailable.
func (c *Client) Status(ctx context.Context, id string) (json.RawMessage, error) {
	endpoint := c.baseURL + "/status/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch tweet %s: %w", domain.ErrUpstreamUnavailable, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", domain.ErrTweetNotFound, domain.NewUpstreamError(resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Tweet embed API failed", zap.String("tweet_id", id), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("fetch tweet %s: %w", id, domain.NewUpstreamError(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read tweet %s: %w", domain.ErrUpstreamUnavailable, id, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: tweet %s: response is not JSON", domain.ErrUpstreamUnavailable, id)
	}
	return body, nil
}
