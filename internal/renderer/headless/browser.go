// Package headless renders pages with JavaScript enabled via chromedp and
// headless Chrome.
package headless

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

// Config controls the shared Chrome process and per-tab behavior.
type Config struct {
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	// MaxScrolls bounds the scroll-to-bottom loop used to trigger lazy
	// loaded content; 0 disables scrolling.
	MaxScrolls  int
	ScrollDelay time.Duration
	// DomainQPS throttles navigations per hostname; 0 disables throttling.
	DomainQPS float64
}

// Browser owns one Chrome process. Tabs opened from it share the process but
// render in isolated targets, so a page pool can navigate them concurrently.
type Browser struct {
	cfg    Config
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	domainLimiters sync.Map
}

// New launches Chrome and verifies it responds before returning.
func New(cfg Config, logger *zap.Logger) (*Browser, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.ScrollDelay <= 0 {
		cfg.ScrollDelay = 500 * time.Millisecond
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Browser{
		cfg:           cfg,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewTab opens a fresh Chrome target and prepares its network domain.
func (b *Browser) NewTab(ctx context.Context) (scraper.Tab, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)

	setup := chromedp.Tasks{network.Enable()}
	if b.cfg.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(b.cfg.UserAgent))
	}

	runCtx, cancel := context.WithTimeout(tabCtx, b.cfg.NavigationTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, setup); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	return &tab{browser: b, ctx: tabCtx, cancel: tabCancel}, nil
}

// Close tears down every remaining tab along with the Chrome process.
func (b *Browser) Close() error {
	b.browserCancel()
	b.allocCancel()
	return nil
}

func (b *Browser) limiterFor(rawURL string) *rate.Limiter {
	if b.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())
	val, _ := b.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(b.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return nil
	}
	return limiter
}

// tab is one Chrome target. Its context outlives individual navigations;
// each operation is bounded by the caller's context plus the configured
// navigation timeout.
type tab struct {
	browser *Browser
	ctx     context.Context
	cancel  context.CancelFunc
}

func (t *tab) Navigate(ctx context.Context, pageURL string) error {
	if limiter := t.browser.limiterFor(pageURL); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("domain rate limit: %w", err)
		}
	}

	actions := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if t.browser.cfg.MaxScrolls > 0 {
		actions = append(actions, t.scrollToBottom())
	}
	if err := t.run(ctx, actions); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	return nil
}

func (t *tab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, chromedp.Tasks{chromedp.OuterHTML("html", &html, chromedp.ByQuery)}); err != nil {
		return "", fmt.Errorf("snapshot dom: %w", err)
	}
	return html, nil
}

func (t *tab) Location(ctx context.Context) (string, error) {
	var location string
	if err := t.run(ctx, chromedp.Tasks{chromedp.Location(&location)}); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return location, nil
}

func (t *tab) Close() error {
	t.cancel()
	return nil
}

func (t *tab) run(ctx context.Context, actions chromedp.Tasks) error {
	runCtx, cancel := context.WithTimeout(t.ctx, t.browser.cfg.NavigationTimeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions)
}

// scrollToBottom repeatedly scrolls the page to trigger lazy loading,
// stopping once the document height settles or MaxScrolls is reached.
func (t *tab) scrollToBottom() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var lastHeight int64 = -1
		for i := 0; i < t.browser.cfg.MaxScrolls; i++ {
			var height int64
			if err := chromedp.Evaluate("document.body.scrollHeight", &height).Do(ctx); err != nil {
				return fmt.Errorf("read scroll height: %w", err)
			}
			if height == lastHeight {
				return nil
			}
			lastHeight = height
			if err := chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil).Do(ctx); err != nil {
				return fmt.Errorf("scroll: %w", err)
			}
			select {
			case <-time.After(t.browser.cfg.ScrollDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
