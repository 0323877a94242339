package scraper

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// crawlState tracks the batch crawler lifecycle.
type crawlState int

const (
	stateSeeded crawlState = iota
	stateRunning
	stateDraining
	stateDone
)

// BatchCrawler drives one crawl run: it pulls batches from the frontier,
// dispatches each URL to the extractor through a pool-leased tab, and feeds
// discovered same-host links back into the frontier. A batch fully completes
// before the next one is pulled, so in-flight extractions never exceed
// min(batchSize, pool size).
type BatchCrawler struct {
	frontier  *Frontier
	pool      *PagePool
	extractor *Extractor
	batchSize int
	seedURL   string
	logger    *zap.Logger

	state   crawlState
	records []PageRecord
}

// NewBatchCrawler seeds a crawler for one run. The frontier must already hold
// the seed URL.
func NewBatchCrawler(frontier *Frontier, pool *PagePool, extractor *Extractor, batchSize int, seedURL string, logger *zap.Logger) *BatchCrawler {
	return &BatchCrawler{
		frontier:  frontier,
		pool:      pool,
		extractor: extractor,
		batchSize: batchSize,
		seedURL:   seedURL,
		logger:    logger,
		state:     stateSeeded,
	}
}

type dispatchResult struct {
	record PageRecord
	err    error
}

// Run executes the crawl to completion or cancellation and returns the
// collected records in dispatch order. Individual page failures are logged
// and skipped; only cancellation ends the run early.
func (c *BatchCrawler) Run(ctx context.Context) ([]PageRecord, error) {
	c.state = stateRunning
	for c.frontier.HasWork() {
		if err := ctx.Err(); err != nil {
			c.drain()
			return c.records, err
		}

		batch := c.frontier.NextBatch(c.batchSize)
		if len(batch) == 0 {
			break
		}
		c.logger.Debug("dispatching batch",
			zap.Int("size", len(batch)),
			zap.Int("budget_remaining", c.frontier.Remaining()),
		)

		results := make([]dispatchResult, len(batch))
		var wg sync.WaitGroup
		for i, pageURL := range batch {
			wg.Add(1)
			go func(i int, pageURL string) {
				defer wg.Done()
				record, err := c.crawlOne(ctx, pageURL)
				results[i] = dispatchResult{record: record, err: err}
			}(i, pageURL)
		}
		wg.Wait()

		for i, res := range results {
			if res.err != nil {
				TotalExtractionFailures.Inc()
				c.logger.Warn("page extraction failed",
					zap.String("url", batch[i]),
					zap.Error(res.err),
				)
				continue
			}
			TotalPagesScraped.Inc()
			c.records = append(c.records, res.record)
			c.feedFrontier(res.record.Links)
		}
	}

	c.drain()
	return c.records, nil
}

// crawlOne leases a tab, extracts the page, and releases the tab on every
// exit path.
func (c *BatchCrawler) crawlOne(ctx context.Context, pageURL string) (PageRecord, error) {
	tab, err := c.pool.Lease(ctx)
	if err != nil {
		return PageRecord{}, err
	}
	defer c.pool.Release(tab)
	return c.extractor.Extract(ctx, tab, pageURL)
}

// feedFrontier enqueues discovered links that share the seed's host.
// Off-host links stay in the record but are never crawled.
func (c *BatchCrawler) feedFrontier(links []string) {
	for _, link := range links {
		if !SameHost(link, c.seedURL) {
			continue
		}
		normalized, err := NormalizeURL(link)
		if err != nil {
			continue
		}
		c.frontier.Enqueue(normalized)
	}
}

func (c *BatchCrawler) drain() {
	// Batches are joined before the loop advances, so nothing is in flight
	// by the time we get here; the state change marks the run terminal.
	c.state = stateDraining
	c.state = stateDone
}

// Done reports whether the run reached its terminal state.
func (c *BatchCrawler) Done() bool {
	return c.state == stateDone
}
