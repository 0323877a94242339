package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func page(title string, links ...string) string {
	body := "<html><head><title>" + title + "</title></head><body><p>" + title + " content</p>"
	for _, link := range links {
		body += `<a href="` + link + `">` + link + `</a>`
	}
	return body + "</body></html>"
}

type crawlHarness struct {
	site    *fakeSite
	browser *fakeBrowser
	pool    *PagePool
	crawler *BatchCrawler
}

func newCrawlHarness(t *testing.T, pages map[string]string, seed string, budget, poolSize, batchSize int) *crawlHarness {
	t.Helper()
	site := newFakeSite(pages)
	browser := newFakeBrowser(site)
	pool, err := NewPagePool(context.Background(), browser, poolSize, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	frontier := NewFrontier(seed, budget)
	extractor := NewExtractor(NewDOMSanitizer(), &fakeClock{now: extractTestTime}, zap.NewNop())
	return &crawlHarness{
		site:    site,
		browser: browser,
		pool:    pool,
		crawler: NewBatchCrawler(frontier, pool, extractor, batchSize, seed, zap.NewNop()),
	}
}

func recordURLs(records []PageRecord) []string {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.URL)
	}
	return urls
}

func TestBatchCrawlerFollowsSameHostLinks(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":       page("Home", "/a", "/b", "https://other.example/skip"),
		"https://example.com/a":      page("A", "/deep"),
		"https://example.com/b":      page("B"),
		"https://example.com/deep":   page("Deep"),
		"https://other.example/skip": page("Off host"),
	}
	h := newCrawlHarness(t, pages, "https://example.com/", 10, 2, 2)

	records, err := h.crawler.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, h.crawler.Done())

	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/deep",
	}, recordURLs(records))
	assert.NotContains(t, recordURLs(records), "https://other.example/skip")
}

func TestBatchCrawlerHonorsSinglePageBudget(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":  page("Home", "/a", "/b"),
		"https://example.com/a": page("A"),
		"https://example.com/b": page("B"),
	}
	h := newCrawlHarness(t, pages, "https://example.com/", 1, 2, 2)

	records, err := h.crawler.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/", records[0].URL)
	// Links were discovered but the budget was already spent.
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, records[0].Links)
	assert.EqualValues(t, 1, h.site.navigations.Load())
}

func TestBatchCrawlerTerminatesOnLinkCycle(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/a": page("A", "/b"),
		"https://example.com/b": page("B", "/a"),
	}
	h := newCrawlHarness(t, pages, "https://example.com/a", 50, 2, 2)

	done := make(chan struct{})
	var records []PageRecord
	var err error
	go func() {
		records, err = h.crawler.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("crawler did not terminate on a two-page cycle")
	}
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, recordURLs(records))
	assert.EqualValues(t, 2, h.site.navigations.Load())
}

func TestBatchCrawlerContinuesAfterPageFailure(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":     page("Home", "/bad", "/good"),
		"https://example.com/good": page("Good"),
	}
	h := newCrawlHarness(t, pages, "https://example.com/", 10, 2, 2)
	h.site.failures["https://example.com/bad"] = errors.New("timeout waiting for body")

	records, err := h.crawler.Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"https://example.com/",
		"https://example.com/good",
	}, recordURLs(records))
}

func TestBatchCrawlerConcurrencyNeverExceedsPool(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/": page("Home", "/p1", "/p2", "/p3", "/p4", "/p5", "/p6"),
	}
	for _, p := range []string{"/p1", "/p2", "/p3", "/p4", "/p5", "/p6"} {
		pages["https://example.com"+p] = page(p)
	}
	h := newCrawlHarness(t, pages, "https://example.com/", 20, 2, 6)
	h.site.delay = 5 * time.Millisecond

	records, err := h.crawler.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, records, 7)
	assert.LessOrEqual(t, h.site.maxInFlight.Load(), int64(2))
}

func TestBatchCrawlerStopsOnCancellation(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":  page("Home", "/a"),
		"https://example.com/a": page("A", "/b"),
		"https://example.com/b": page("B"),
	}
	h := newCrawlHarness(t, pages, "https://example.com/", 10, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := h.crawler.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, records)
	assert.True(t, h.crawler.Done())
}
