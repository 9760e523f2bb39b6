package content

import (
	"context"
	"fmt"

	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/retry"
)

// Page holds the extracted text of a fetched URL.
type Page struct {
	Title   string
	Content string
	URL     string
}

// Fetcher turns a URL into extracted page text. Implementations fail with
// an error on non-2xx responses, network failures, or invalid URLs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// NewFetcher selects a content provider from settings and wraps it with
// the retry policy.
func NewFetcher(settings *database.Settings) (Fetcher, error) {
	var fetcher Fetcher

	switch settings.ContentProvider {
	case "", "direct":
		fetcher = NewDirectFetcher()
	case "jina":
		fetcher = NewJinaFetcher(settings.JinaAPIKey)
	default:
		return nil, fmt.Errorf("unknown content provider: %s", settings.ContentProvider)
	}

	return &retryingFetcher{fetcher: fetcher}, nil
}

type retryingFetcher struct {
	fetcher Fetcher
}

func (f *retryingFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	var page *Page
	err := retry.Do(ctx, "content fetch", func() error {
		var fetchErr error
		page, fetchErr = f.fetcher.Fetch(ctx, url)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
