// Package scraper implements the crawl orchestration engine: the visited
// frontier, the page pool, batched extraction, and per-site run coordination.
package scraper

import (
	"time"
)

// PageRecord is the structured result of extracting one page.
// It is immutable once created and written exactly once to the sink.
type PageRecord struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Links       []string  `json:"links"`
	Timestamp   time.Time `json:"timestamp"`
}

// SiteRun identifies one crawl of one site.
type SiteRun struct {
	Name     string
	URL      string
	MaxPages int
}

// RunResult reports the outcome of a single site run.
type RunResult struct {
	Site         string    `json:"site"`
	URL          string    `json:"url"`
	Success      bool      `json:"success"`
	PagesScraped int       `json:"pages_scraped"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	ErrorText    string    `json:"error_text,omitempty"`
}
