package newsscraping

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"
)

const defaultMaxContentLen = 20000

// ContentFetcher downloads an article page and extracts its readable text.
type ContentFetcher struct {
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxContentLen int
}

func NewContentFetcher(timeout time.Duration, limiter *rate.Limiter) *ContentFetcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &ContentFetcher{
		httpClient:    &http.Client{Timeout: timeout},
		limiter:       limiter,
		maxContentLen: defaultMaxContentLen,
	}
}

// Fetch returns the article body text of rawURL.
func (f *ContentFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lexipulse/1.0)")

	resp, err := f.httpClient.Do(req)
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

	return truncate(strings.TrimSpace(article.TextContent), f.maxContentLen), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
