package scraper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalPagesScraped tracks pages successfully extracted and collected.
	TotalPagesScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_pages_scraped_total",
		Help: "The total number of pages successfully extracted.",
	})
	// TotalExtractionFailures tracks pages that failed to render or parse.
	TotalExtractionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_extraction_failures_total",
		Help: "The total number of pages that failed extraction.",
	})
	// TotalRuns tracks site runs started.
	TotalRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_runs_total",
		Help: "The total number of site runs started.",
	})
	// TotalRunFailures tracks site runs that finished unsuccessfully.
	TotalRunFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_run_failures_total",
		Help: "The total number of site runs that failed.",
	})
)
