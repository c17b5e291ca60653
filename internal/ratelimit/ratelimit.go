package ratelimit

import (
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Defaults for Config.
const (
	DefaultRequests   = 30
	DefaultWindow     = time.Minute
	DefaultMaxClients = 10000
)

// Config sizes the per-client token buckets.
type Config struct {
	Requests   int           // bucket size and refill amount per window
	Window     time.Duration // refill period for Requests tokens
	MaxClients int           // least recently seen clients are forgotten beyond this
}

// Limiter is a bounded table of per-client token buckets.
type Limiter struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// New creates a limiter.
func New(cfg Config) (*Limiter, error) {
	if cfg.Requests <= 0 {
		cfg.Requests = DefaultRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	buckets, err := lru.New[string, *rate.Limiter](cfg.MaxClients)
	if err != nil {
		return nil, err //nolint:wrapcheck // only fails on a non-positive size
	}
	return &Limiter{
		buckets: buckets,
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		now:     time.Now,
	}, nil
}

// Allow takes one token for client. When the bucket is empty it returns false and
// the whole number of seconds (at least 1) until a token is available.
func (l *Limiter) Allow(client string) (bool, int) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets.Get(client)
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets.Add(client, b)
	}
	l.mu.Unlock()

	r := b.ReserveN(now, 1)
	if !r.OK() {
		return false, 1
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	r.CancelAt(now)
	return false, max(1, int(math.Ceil(delay.Seconds())))
}

// ClientID identifies the caller: the first X-Forwarded-For entry,
// else X-Real-IP, else "local".
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
		return "unknown"
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "local"
}
