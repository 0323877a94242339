// Package memory provides an in-memory run history for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

// Store keeps run results in memory, newest first.
type Store struct {
	mu   sync.RWMutex
	runs []scraper.RunResult
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// RecordRun appends the result.
func (s *Store) RecordRun(_ context.Context, result scraper.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, result)
	return nil
}

// ListRuns returns up to limit results, newest first, optionally filtered by
// site name. A limit <= 0 returns everything.
func (s *Store) ListRuns(_ context.Context, site string, limit int) ([]scraper.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scraper.RunResult, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if site != "" && s.runs[i].Site != site {
			continue
		}
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() {}
