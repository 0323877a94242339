package scraper

import (
	"context"
	"time"
)

// Tab is one exclusively leased rendering context. Implementations live in
// internal/renderer; the engine only navigates, snapshots, and closes.
type Tab interface {
	// Navigate loads url and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// HTML returns the rendered DOM snapshot.
	HTML(ctx context.Context) (string, error)
	// Location reports the current (post-redirect) URL.
	Location(ctx context.Context) (string, error)
	// Close releases the underlying rendering context.
	Close() error
}

// Browser opens tabs for the page pool.
type Browser interface {
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Sanitizer strips invisible, script, style, comment, and empty nodes from a
// DOM snapshot. It is a pure function over the HTML string.
type Sanitizer interface {
	Clean(html string) (string, error)
}

// Sink persists finished page records and returns the destination URI.
type Sink interface {
	SaveRecord(ctx context.Context, record PageRecord) (string, error)
}

// History records run outcomes.
type History interface {
	RecordRun(ctx context.Context, result RunResult) error
}

// Publisher pushes run-completed events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
