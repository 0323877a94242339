package scraper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeClock returns a fixed instant.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// fakeTab serves canned HTML keyed by URL and tracks concurrency.
type fakeTab struct {
	site *fakeSite

	mu      sync.Mutex
	current string
	closed  bool
}

// fakeSite is the shared world a fakeBrowser's tabs navigate.
type fakeSite struct {
	pages    map[string]string
	failures map[string]error
	delay    time.Duration

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	navigations atomic.Int64
}

func newFakeSite(pages map[string]string) *fakeSite {
	return &fakeSite{
		pages:    pages,
		failures: make(map[string]error),
	}
}

func (t *fakeTab) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.site.navigations.Add(1)
	current := t.site.inFlight.Add(1)
	defer t.site.inFlight.Add(-1)
	for {
		peak := t.site.maxInFlight.Load()
		if current <= peak || t.site.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	if t.site.delay > 0 {
		time.Sleep(t.site.delay)
	}
	if err, ok := t.site.failures[url]; ok {
		return err
	}
	if _, ok := t.site.pages[url]; !ok {
		return errors.New("navigation failed: no such page")
	}
	t.mu.Lock()
	t.current = url
	t.mu.Unlock()
	return nil
}

func (t *fakeTab) HTML(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.site.pages[t.current], nil
}

func (t *fakeTab) Location(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, nil
}

func (t *fakeTab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// fakeBrowser opens fakeTabs over a shared fakeSite.
type fakeBrowser struct {
	site    *fakeSite
	openErr error

	mu   sync.Mutex
	tabs []*fakeTab
}

func newFakeBrowser(site *fakeSite) *fakeBrowser {
	return &fakeBrowser{site: site}
}

func (b *fakeBrowser) NewTab(_ context.Context) (Tab, error) {
	if b.openErr != nil {
		return nil, b.openErr
	}
	tab := &fakeTab{site: b.site}
	b.mu.Lock()
	b.tabs = append(b.tabs, tab)
	b.mu.Unlock()
	return tab, nil
}

func (b *fakeBrowser) Close() error {
	return nil
}

// fakeSink collects saved records.
type fakeSink struct {
	mu      sync.Mutex
	records []PageRecord
	err     error
}

func (s *fakeSink) SaveRecord(_ context.Context, record PageRecord) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return "memory://" + record.URL, nil
}

// fakeHistory collects run results.
type fakeHistory struct {
	mu      sync.Mutex
	results []RunResult
}

func (h *fakeHistory) RecordRun(_ context.Context, result RunResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
	return nil
}

// fakePublisher collects published payloads.
type fakePublisher struct {
	mu       sync.Mutex
	payloads []any
}

func (p *fakePublisher) Publish(_ context.Context, _ string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return "fake-1", nil
}
