package scraper

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PagePool hands out a fixed set of reusable tabs. Lease blocks while every
// tab is in use, which is the backpressure that bounds crawl concurrency.
// Waiters are served FIFO by the underlying channel.
type PagePool struct {
	slots  chan Tab
	size   int
	logger *zap.Logger

	mu     sync.Mutex
	leased map[Tab]struct{}
	all    []Tab
	closed bool
}

// NewPagePool opens exactly size tabs via the browser. On partial failure it
// closes the tabs already opened and returns the error.
func NewPagePool(ctx context.Context, browser Browser, size int, logger *zap.Logger) (*PagePool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be > 0, got %d", size)
	}
	p := &PagePool{
		slots:  make(chan Tab, size),
		size:   size,
		logger: logger,
		leased: make(map[Tab]struct{}, size),
	}
	for i := 0; i < size; i++ {
		tab, err := browser.NewTab(ctx)
		if err != nil {
			p.closeAllLocked()
			return nil, fmt.Errorf("open tab %d/%d: %w", i+1, size, err)
		}
		p.all = append(p.all, tab)
		p.slots <- tab
	}
	return p, nil
}

// Size returns the fixed pool capacity.
func (p *PagePool) Size() int {
	return p.size
}

// Lease blocks until a tab is free or ctx is done.
func (p *PagePool) Lease(ctx context.Context) (Tab, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case tab, ok := <-p.slots:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.mu.Lock()
		p.leased[tab] = struct{}{}
		p.mu.Unlock()
		return tab, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lease tab: %w", ctx.Err())
	}
}

// Release returns a tab to the pool. Releasing a tab that is not currently
// leased (including a second release of the same tab) is a logged no-op, so
// the pool can never report more free slots than exist.
func (p *PagePool) Release(tab Tab) {
	if tab == nil {
		return
	}
	p.mu.Lock()
	if _, ok := p.leased[tab]; !ok {
		p.mu.Unlock()
		p.logger.Warn("release of a tab that is not leased; ignoring")
		return
	}
	delete(p.leased, tab)
	if p.closed {
		p.mu.Unlock()
		if err := tab.Close(); err != nil {
			p.logger.Warn("close tab after pool shutdown", zap.Error(err))
		}
		return
	}
	p.mu.Unlock()
	p.slots <- tab
}

// Close shuts the pool down and closes every idle tab. Tabs still leased are
// closed when released.
func (p *PagePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.slots)
	var firstErr error
	for tab := range p.slots {
		if err := tab.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.all = nil
	return firstErr
}

func (p *PagePool) closeAllLocked() {
	for _, tab := range p.all {
		if err := tab.Close(); err != nil {
			p.logger.Warn("close tab during pool setup rollback", zap.Error(err))
		}
	}
	p.all = nil
}
