// Package reader fetches a public case page and extracts its readable text
// for the detail view.
package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const defaultMaxContentLen = 4000

// Reader extracts readable content from case pages.
type Reader struct {
	httpClient    *http.Client
	siteBase      string
	maxContentLen int
}

// Option configures a Reader.
type Option func(*Reader)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) {
		r.httpClient.Timeout = d
	}
}

// WithMaxContentLength sets the maximum content length to return.
func WithMaxContentLength(n int) Option {
	return func(r *Reader) {
		r.maxContentLen = n
	}
}

// NewReader creates a reader rooted at the public site base URL.
func NewReader(siteBaseURL string, opts ...Option) *Reader {
	r := &Reader{
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		siteBase:      strings.TrimRight(siteBaseURL, "/"),
		maxContentLen: defaultMaxContentLen,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CaseText fetches the public page for a case and returns its readable text.
func (r *Reader) CaseText(ctx context.Context, caseID string) (string, error) {
	if caseID == "" {
		return "", fmt.Errorf("empty case id")
	}
	return r.Extract(ctx, fmt.Sprintf("%s/cases/%s", r.siteBase, url.PathEscape(caseID)))
}

// Extract fetches a URL and returns its readable text content, truncated to
// the configured budget.
func (r *Reader) Extract(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	// Set a user agent to avoid being blocked
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; snda-browse/1.0)")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)

	if len(content) > r.maxContentLen {
		content = content[:r.maxContentLen]
	}

	return content, nil
}
