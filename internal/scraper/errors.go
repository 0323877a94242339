package scraper

import (
	"errors"
	"fmt"
)

// ErrPoolClosed indicates a lease was requested after the pool shut down.
var ErrPoolClosed = errors.New("page pool closed")

// ExtractionError wraps a failure to render or parse a single page.
// It is recovered by the batch crawler and never aborts a run.
type ExtractionError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}
