package scraper

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierSeedsStartURL(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/", 10)
	require.True(t, f.HasWork())

	batch := f.NextBatch(4)
	require.Equal(t, []string{"https://example.com/"}, batch)
	assert.False(t, f.HasWork())
	assert.Equal(t, 1, f.VisitedCount())
	assert.Equal(t, 9, f.Remaining())
}

func TestFrontierDeduplicatesEnqueues(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/", 10)
	f.Enqueue("https://example.com/a")
	f.Enqueue("https://example.com/a")
	f.Enqueue("https://example.com/")

	batch := f.NextBatch(10)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/a"}, batch)
}

func TestFrontierRejectsVisitedURLs(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/", 10)
	require.Equal(t, []string{"https://example.com/"}, f.NextBatch(1))

	// A page linking back to an already crawled page must not requeue it.
	f.Enqueue("https://example.com/")
	assert.False(t, f.HasWork())
	assert.Nil(t, f.NextBatch(1))
}

func TestFrontierBudgetCapsBatches(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/", 3)
	for _, u := range []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
	} {
		f.Enqueue(u)
	}

	assert.Len(t, f.NextBatch(10), 3)
	assert.Equal(t, 0, f.Remaining())
	assert.False(t, f.HasWork())
	assert.Nil(t, f.NextBatch(10))
}

func TestFrontierSingleBudgetIgnoresDiscoveredLinks(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/", 1)
	batch := f.NextBatch(4)
	require.Len(t, batch, 1)

	// Links found on the seed page arrive after the budget is spent.
	f.Enqueue("https://example.com/next")
	assert.False(t, f.HasWork())
	assert.Nil(t, f.NextBatch(4))
	assert.Equal(t, 1, f.VisitedCount())
}

func TestFrontierConcurrentDispatchNeverDuplicates(t *testing.T) {
	t.Parallel()

	f := NewFrontier("https://example.com/0", 1000)
	for i := 1; i < 500; i++ {
		f.Enqueue("https://example.com/" + string(rune('a'+i%26)) + string(rune('0'+i%10)))
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch := f.NextBatch(7)
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, u := range batch {
					seen[u]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for u, count := range seen {
		assert.Equal(t, 1, count, "url dispatched more than once: %s", u)
	}
	assert.Equal(t, len(seen), f.VisitedCount())
}
