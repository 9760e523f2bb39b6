package organizer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/lysyi3m/bookmark-comb/app/content"
	"github.com/lysyi3m/bookmark-comb/app/database"
)

func makeBookmarks(n int) []*database.Node {
	bookmarks := make([]*database.Node, n)
	for i := range bookmarks {
		bookmarks[i] = &database.Node{
			ID:  fmt.Sprintf("b%d", i),
			URL: fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return bookmarks
}

func TestSampleBookmarks_Size(t *testing.T) {
	scenarios := []struct {
		total int
		rate  float64
		want  int
	}{
		{100, 0.1, 10},
		{5, 0.1, 1},  // floor would be 0, clamped to 1
		{10, 1.0, 10},
		{10, 0, 10},  // invalid rate clamps to 1.0
		{10, 1.5, 10},
		{1, 0.01, 1},
	}

	for _, scenario := range scenarios {
		sample := SampleBookmarks(makeBookmarks(scenario.total), scenario.rate)
		if len(sample) != scenario.want {
			t.Errorf("SampleBookmarks(n=%d, rate=%v): expected %d, got %d",
				scenario.total, scenario.rate, scenario.want, len(sample))
		}
	}
}

func TestSampleBookmarks_NoDuplicates(t *testing.T) {
	bookmarks := makeBookmarks(50)
	sample := SampleBookmarks(bookmarks, 0.5)

	seen := make(map[string]bool)
	valid := make(map[string]bool)
	for _, b := range bookmarks {
		valid[b.ID] = true
	}

	for _, b := range sample {
		if seen[b.ID] {
			t.Errorf("Bookmark %s sampled twice", b.ID)
		}
		seen[b.ID] = true
		if !valid[b.ID] {
			t.Errorf("Sampled bookmark %s is not from the input", b.ID)
		}
	}
}

func TestSampleBookmarks_Empty(t *testing.T) {
	if sample := SampleBookmarks(nil, 0.5); sample != nil {
		t.Errorf("Expected nil sample for empty input, got %v", sample)
	}
}

func TestContentBatcher_Run_FailureIsolation(t *testing.T) {
	fetcher := &fakeFetcher{
		fetchFunc: func(ctx context.Context, url string) (*content.Page, error) {
			if strings.HasSuffix(url, "/2") {
				return nil, fmt.Errorf("boom")
			}
			return &content.Page{Content: "content of " + url, URL: url}, nil
		},
	}

	batcher := NewContentBatcher(fetcher, 2, 1)
	bookmarks := makeBookmarks(5)

	pages, err := batcher.Run(context.Background(), bookmarks)
	if err != nil {
		t.Fatalf("Fetch failures must not abort the batch, got: %v", err)
	}

	if len(pages) != len(bookmarks) {
		t.Fatalf("Expected result aligned with input: %d vs %d", len(pages), len(bookmarks))
	}
	for i, page := range pages {
		if i == 2 {
			if page != nil {
				t.Error("Expected nil placeholder for the failed fetch")
			}
			continue
		}
		if page == nil {
			t.Errorf("Expected page at index %d", i)
		}
	}
}

func TestContentBatcher_Run_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batcher := NewContentBatcher(&fakeFetcher{}, 2, 1)
	if _, err := batcher.Run(ctx, makeBookmarks(5)); err == nil {
		t.Error("Expected cancellation error")
	}
}

func TestNewContentBatcher_Defaults(t *testing.T) {
	batcher := NewContentBatcher(&fakeFetcher{}, 0, 0)
	if batcher.batchSize != DefaultBatchSize {
		t.Errorf("Expected default batch size %d, got %d", DefaultBatchSize, batcher.batchSize)
	}
	if batcher.delay != DefaultBatchDelay {
		t.Errorf("Expected default delay %v, got %v", DefaultBatchDelay, batcher.delay)
	}
}
