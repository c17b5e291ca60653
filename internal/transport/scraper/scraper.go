package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"

	"github.com/kailas-cloud/tweetdex/internal/domain"
	"github.com/kailas-cloud/tweetdex/internal/domain/heading"
)

// DefaultTimeout bounds one page fetch.
const DefaultTimeout = 15 * time.Second

const maxPageBytes = 8 << 20

var levels = map[atom.Atom]int{atom.H1: 1, atom.H2: 2, atom.H3: 3}

// Scraper extracts h1-h3 headings from a web page.
type Scraper struct {
	http *http.Client
	url  string
}

// New creates a scraper for url.
func New(url string, timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scraper{http: &http.Client{Timeout: timeout}, url: url}
}

// Headings fetches the page and returns its headings: all h1 first, then h2, then h3,
// each in document order. The body is decoded as ISO-8859-1.
func (s *Scraper) Headings(ctx context.Context) ([]heading.Heading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrUpstreamUnavailable, s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w", s.url, domain.NewUpstreamError(resp.StatusCode))
	}

	body := charmap.ISO8859_1.NewDecoder().Reader(io.LimitReader(resp.Body, maxPageBytes))
	hs, err := Extract(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrUpstreamUnavailable, s.url, err)
	}
	return hs, nil
}

// Extract parses HTML and returns its non-empty h1-h3 headings grouped by level.
// Nested tags are stripped, entities decoded, and whitespace collapsed.
func Extract(r io.Reader) ([]heading.Heading, error) {
	var byLevel [3][]heading.Heading

	z := html.NewTokenizer(r)
	var (
		open  atom.Atom
		level int
		text  strings.Builder
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("tokenize: %w", err)
			}
			return append(append(byLevel[0], byLevel[1]...), byLevel[2]...), nil
		case html.StartTagToken:
			tok := z.Token()
			if l, ok := levels[tok.DataAtom]; ok && level == 0 {
				open, level = tok.DataAtom, l
				text.Reset()
			}
		case html.EndTagToken:
			tok := z.Token()
			if level > 0 && tok.DataAtom == open {
				if t := strings.Join(strings.Fields(text.String()), " "); t != "" {
					byLevel[level-1] = append(byLevel[level-1], heading.Heading{Level: level, Text: t})
				}
				open, level = 0, 0
			}
		case html.TextToken:
			if level > 0 {
				text.Write(z.Text())
				text.WriteByte(' ')
			}
		}
	}
}
