package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	nurl "net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

const (
	// minTextLength is the minimum content length to accept as a valid extraction.
	// Pages returning less than this are likely login walls, cookie walls, or empty pages.
	minTextLength = 100
	// maxRetries is the number of extraction attempts before giving up.
	maxRetries = 3
	// maxBodySize is the maximum HTTP response body size (5MB).
	maxBodySize = 5 * 1024 * 1024
)

// URLExtractor fetches incident bulletins, casualty reports and news pages
// and extracts their readable text with go-readability.
type URLExtractor struct {
	client  *http.Client
	maxText int
	backoff time.Duration
}

// NewURLExtractor creates an extractor. maxText caps the returned text in
// runes; zero means 15000.
func NewURLExtractor(timeout time.Duration, maxText int) *URLExtractor {
	if maxText <= 0 {
		maxText = 15000
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &URLExtractor{
		client:  &http.Client{Timeout: timeout},
		maxText: maxText,
		backoff: 2 * time.Second,
	}
}

// Extract fetches the URL and extracts the main content with automatic retry.
func (e *URLExtractor) Extract(ctx context.Context, rawURL string) (*ExtractedContent, error) {
	u, err := nurl.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid source url %q", rawURL)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.backoff):
			}
		}

		content, err := e.doExtract(ctx, u)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

// doExtract performs a single extraction attempt.
func (e *URLExtractor) doExtract(ctx context.Context, u *nurl.URL) (*ExtractedContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, u)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := normalizeText(article.TextContent)
	if n := utf8.RuneCountInString(text); n < minTextLength {
		return nil, fmt.Errorf("extracted content too short (%d chars), possibly blocked or empty page", n)
	}
	text = truncateRunes(text, e.maxText)

	var publishDate string
	if article.PublishedTime != nil && !article.PublishedTime.IsZero() {
		publishDate = article.PublishedTime.Format(time.RFC3339)
	}

	return &ExtractedContent{
		NormalizedText: text,
		Meta: ContentMeta{
			Title:       article.Title,
			Author:      article.Byline,
			PublishDate: publishDate,
			WordCount:   len(strings.Fields(text)),
		},
	}, nil
}

var multiSpace = regexp.MustCompile(`[ \t]+`)
var multiNewline = regexp.MustCompile(`\n{3,}`)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}
