package scraper

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CoordinatorConfig carries the per-run knobs shared by every site.
type CoordinatorConfig struct {
	PoolSize  int
	BatchSize int
	// Topic is the publisher topic for run-completed events; empty disables
	// publishing.
	Topic string
}

// Coordinator wraps one full crawl of one site: it builds a fresh pool and
// frontier, runs the batch crawler to completion, persists the records, and
// reports the outcome. Failures never escape as errors; they become a failed
// RunResult so other sites keep their schedules.
type Coordinator struct {
	browser   Browser
	sanitizer Sanitizer
	sink      Sink
	history   History
	publisher Publisher
	clock     Clock
	cfg       CoordinatorConfig
	logger    *zap.Logger
}

// NewCoordinator constructs a Coordinator. History and publisher may be nil.
func NewCoordinator(
	browser Browser,
	sanitizer Sanitizer,
	sink Sink,
	history History,
	publisher Publisher,
	clock Clock,
	cfg CoordinatorConfig,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		browser:   browser,
		sanitizer: sanitizer,
		sink:      sink,
		history:   history,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run crawls one site to completion and returns its RunResult.
func (c *Coordinator) Run(ctx context.Context, run SiteRun) RunResult {
	TotalRuns.Inc()
	result := RunResult{
		Site:      run.Name,
		URL:       run.URL,
		StartedAt: c.clock.Now(),
	}
	logger := c.logger.With(zap.String("site", run.Name))
	logger.Info("site run starting",
		zap.String("url", run.URL),
		zap.Int("max_pages", run.MaxPages),
	)

	records, err := c.crawl(ctx, run, logger)
	result.PagesScraped = len(records)

	if err == nil {
		err = c.persist(ctx, records, logger)
	}

	result.FinishedAt = c.clock.Now()
	if err != nil {
		result.ErrorText = err.Error()
		TotalRunFailures.Inc()
		logger.Error("site run failed", zap.Error(err))
	} else {
		result.Success = true
		logger.Info("site run finished", zap.Int("pages", result.PagesScraped))
	}

	c.record(ctx, result, logger)
	return result
}

func (c *Coordinator) crawl(ctx context.Context, run SiteRun, logger *zap.Logger) ([]PageRecord, error) {
	seed, err := NormalizeURL(run.URL)
	if err != nil {
		return nil, fmt.Errorf("run setup: %w", err)
	}
	if run.MaxPages <= 0 {
		return nil, fmt.Errorf("run setup: max pages must be > 0, got %d", run.MaxPages)
	}

	pool, err := NewPagePool(ctx, c.browser, c.cfg.PoolSize, logger.Named("pool"))
	if err != nil {
		return nil, fmt.Errorf("run setup: %w", err)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("pool close", zap.Error(cerr))
		}
	}()

	frontier := NewFrontier(seed, run.MaxPages)
	extractor := NewExtractor(c.sanitizer, c.clock, logger.Named("extract"))
	crawler := NewBatchCrawler(frontier, pool, extractor, c.cfg.BatchSize, seed, logger.Named("crawl"))
	return crawler.Run(ctx)
}

func (c *Coordinator) persist(ctx context.Context, records []PageRecord, logger *zap.Logger) error {
	for _, record := range records {
		uri, err := c.sink.SaveRecord(ctx, record)
		if err != nil {
			return fmt.Errorf("persist %s: %w", record.URL, err)
		}
		logger.Debug("record persisted", zap.String("url", record.URL), zap.String("uri", uri))
	}
	return nil
}

// record writes the run outcome to history and publishes the run-completed
// event. Both are best-effort; a reporting failure never fails the run.
func (c *Coordinator) record(ctx context.Context, result RunResult, logger *zap.Logger) {
	if c.history != nil {
		if err := c.history.RecordRun(ctx, result); err != nil {
			logger.Warn("record run history", zap.Error(err))
		}
	}
	if c.publisher != nil && c.cfg.Topic != "" {
		if _, err := c.publisher.Publish(ctx, c.cfg.Topic, result); err != nil {
			logger.Warn("publish run result", zap.Error(err))
		}
	}
}
