// Package static fetches pages over plain HTTP via colly, without executing
// JavaScript. It backs runs where a headless browser is disabled.
package static

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Browser hands out colly-backed tabs. There is no real browser process;
// tabs are cheap and hold only the last response.
type Browser struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Browser around a shared base collector.
func New(cfg Config, logger *zap.Logger) *Browser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	return &Browser{cfg: cfg, base: c, logger: logger}
}

// NewTab returns a tab cloned from the base collector.
func (b *Browser) NewTab(_ context.Context) (scraper.Tab, error) {
	return &tab{browser: b}, nil
}

// Close is a no-op; colly holds no long-lived process.
func (b *Browser) Close() error {
	return nil
}

// tab remembers the body and final URL of its last successful navigation.
type tab struct {
	browser *Browser

	mu       sync.Mutex
	body     string
	location string
}

func (t *tab) Navigate(ctx context.Context, pageURL string) error {
	collector := t.browser.base.Clone()
	if t.browser.cfg.UserAgent != "" {
		collector.UserAgent = t.browser.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(t.browser.cfg.Timeout)

	var (
		body     string
		location string
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
		location = r.Request.URL.String()
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", pageURL, err)
		}
		if fetchErr != nil {
			return fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
		}
	}

	t.mu.Lock()
	t.body = body
	t.location = location
	t.mu.Unlock()
	return nil
}

func (t *tab) HTML(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.body == "" {
		return "", fmt.Errorf("no page loaded")
	}
	return t.body, nil
}

func (t *tab) Location(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.location, nil
}

func (t *tab) Close() error {
	return nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
