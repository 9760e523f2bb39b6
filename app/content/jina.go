package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const jinaReaderURL = "https://r.jina.ai/"

// JinaFetcher delegates fetching and extraction to the Jina Reader API,
// which returns pre-extracted text for a URL.
type JinaFetcher struct {
	httpClient *http.Client
	apiKey     string
}

func NewJinaFetcher(apiKey string) *JinaFetcher {
	return &JinaFetcher{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		apiKey: apiKey,
	}
}

type jinaResponse struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"data"`
}

func (f *JinaFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", jinaReaderURL+rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL via reader: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read reader response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reader HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var parsed jinaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reader response: %w", err)
	}

	if parsed.Data.Content == "" {
		return nil, fmt.Errorf("reader returned no content for %s", rawURL)
	}

	title := parsed.Data.Title
	if title == "" {
		title = rawURL
	}

	return &Page{
		Title:   title,
		Content: CleanText(parsed.Data.Content),
		URL:     rawURL,
	}, nil
}
