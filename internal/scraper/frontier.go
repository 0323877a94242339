package scraper

import "sync"

// Frontier owns the visited set, the pending queue, and the page budget for
// one crawl run. A URL is marked visited at the moment it is handed out by
// NextBatch, atomically with its removal, so concurrent batches can never
// dispatch the same URL twice.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	queued  map[string]struct{}
	pending []string
	budget  int
}

// NewFrontier creates a frontier seeded with startURL and the given budget.
func NewFrontier(startURL string, budget int) *Frontier {
	f := &Frontier{
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
		budget:  budget,
	}
	f.Enqueue(startURL)
	return f
}

// Enqueue appends url to the pending queue unless it is already pending or
// already visited. Duplicate enqueues are silent no-ops.
func (f *Frontier) Enqueue(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[url]; seen {
		return
	}
	if _, queued := f.queued[url]; queued {
		return
	}
	f.queued[url] = struct{}{}
	f.pending = append(f.pending, url)
}

// NextBatch removes and returns up to n URLs from the front of the queue,
// never exceeding the remaining budget. Each returned URL is marked visited
// and the budget is decremented by the count returned.
func (f *Frontier) NextBatch(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if n > f.budget {
		n = f.budget
	}
	if n > len(f.pending) {
		n = len(f.pending)
	}
	if n <= 0 {
		return nil
	}

	batch := make([]string, n)
	copy(batch, f.pending[:n])
	f.pending = f.pending[n:]
	for _, url := range batch {
		delete(f.queued, url)
		f.visited[url] = struct{}{}
	}
	f.budget -= n
	return batch
}

// HasWork reports whether URLs are pending and budget remains.
func (f *Frontier) HasWork() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) > 0 && f.budget > 0
}

// VisitedCount returns the number of URLs dispatched so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Remaining returns the unused page budget.
func (f *Frontier) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.budget
}
