// Package history persists site run outcomes so schedules and operators can
// see what happened on previous crawls.
package history

import (
	"context"
	"errors"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

// ErrNotFound indicates no runs matched the query.
var ErrNotFound = errors.New("run not found")

// Store records run outcomes and serves them back most recent first.
type Store interface {
	RecordRun(ctx context.Context, result scraper.RunResult) error
	ListRuns(ctx context.Context, site string, limit int) ([]scraper.RunResult, error)
	Close()
}
