package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/lysyi3m/bookmark-comb/app/cfg"
)

const maxContentLength = 4000

// DirectFetcher fetches pages itself and extracts readable text locally.
type DirectFetcher struct {
	httpClient *http.Client
	userAgent  string
}

func NewDirectFetcher() *DirectFetcher {
	return &DirectFetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: cfg.Get().UserAgent,
	}
}

func (f *DirectFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "text/plain") {
		return &Page{
			Title:   rawURL,
			Content: CleanText(string(data)),
			URL:     rawURL,
		}, nil
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	text := CleanText(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no content extracted from %s", rawURL)
	}

	title := article.Title
	if title == "" {
		title = rawURL
	}

	return &Page{
		Title:   title,
		Content: text,
		URL:     rawURL,
	}, nil
}

// CleanText collapses whitespace and truncates to the length passed on to
// the language model.
func CleanText(text string) string {
	fields := strings.Fields(text)
	cleaned := strings.Join(fields, " ")
	if len(cleaned) > maxContentLength {
		cleaned = cleaned[:maxContentLength]
	}
	return cleaned
}
