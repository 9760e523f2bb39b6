package organizer

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/bookmark-comb/app/content"
	"github.com/lysyi3m/bookmark-comb/app/database"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = 500 * time.Millisecond
)

// SampleBookmarks selects max(1, floor(n*rate)) bookmarks via uniform
// random sampling without replacement. Rates outside (0,1] are clamped.
func SampleBookmarks(bookmarks []*database.Node, rate float64) []*database.Node {
	if len(bookmarks) == 0 {
		return nil
	}
	if rate <= 0 || rate > 1 {
		rate = 1
	}

	size := int(math.Floor(float64(len(bookmarks)) * rate))
	if size < 1 {
		size = 1
	}

	sample := make([]*database.Node, 0, size)
	for _, idx := range rand.Perm(len(bookmarks))[:size] {
		sample = append(sample, bookmarks[idx])
	}
	return sample
}

// ContentBatcher fetches page content for a bookmark list in fixed-size
// batches with a throttling delay between batches. A single fetch failure
// yields a nil placeholder for that item and never aborts the batch.
type ContentBatcher struct {
	fetcher   content.Fetcher
	batchSize int
	delay     time.Duration
}

func NewContentBatcher(fetcher content.Fetcher, batchSize, delayMs int) *ContentBatcher {
	batcher := &ContentBatcher{
		fetcher:   fetcher,
		batchSize: batchSize,
		delay:     time.Duration(delayMs) * time.Millisecond,
	}
	if batcher.batchSize <= 0 {
		batcher.batchSize = DefaultBatchSize
	}
	if delayMs <= 0 {
		batcher.delay = DefaultBatchDelay
	}
	return batcher
}

// Run returns a page list aligned 1:1 with the input, with nil in place of
// failed fetches. Callers must filter nils before use. The only error
// returned is cancellation, checked at each batch boundary.
func (b *ContentBatcher) Run(ctx context.Context, bookmarks []*database.Node) ([]*content.Page, error) {
	pages := make([]*content.Page, len(bookmarks))

	for start := 0; start < len(bookmarks); start += b.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if start > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.delay):
			}
		}

		end := start + b.batchSize
		if end > len(bookmarks) {
			end = len(bookmarks)
		}

		var group errgroup.Group
		for i := start; i < end; i++ {
			group.Go(func() error {
				page, err := b.fetcher.Fetch(ctx, bookmarks[i].URL)
				if err != nil {
					slog.Warn("Sample fetch failed", "url", bookmarks[i].URL, "error", err)
					return nil
				}
				pages[i] = page
				return nil
			})
		}
		// Goroutines never return an error; Wait is a barrier only
		_ = group.Wait()
	}

	return pages, nil
}
