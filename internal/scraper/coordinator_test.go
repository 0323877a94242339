package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCoordinator(browser Browser, sink Sink, history History, publisher Publisher) *Coordinator {
	return NewCoordinator(
		browser,
		NewDOMSanitizer(),
		sink,
		history,
		publisher,
		&fakeClock{now: extractTestTime},
		CoordinatorConfig{PoolSize: 2, BatchSize: 2, Topic: "scraper-runs"},
		zap.NewNop(),
	)
}

func TestCoordinatorRunSuccess(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]string{
		"https://example.com/":  page("Home", "/a"),
		"https://example.com/a": page("A"),
	})
	sink := &fakeSink{}
	history := &fakeHistory{}
	publisher := &fakePublisher{}
	c := newTestCoordinator(newFakeBrowser(site), sink, history, publisher)

	result := c.Run(context.Background(), SiteRun{
		Name:     "example",
		URL:      "https://example.com/",
		MaxPages: 10,
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.ErrorText)
	assert.Equal(t, "example", result.Site)
	assert.Equal(t, 2, result.PagesScraped)
	assert.Len(t, sink.records, 2)

	require.Len(t, history.results, 1)
	assert.True(t, history.results[0].Success)
	require.Len(t, publisher.payloads, 1)
	published, ok := publisher.payloads[0].(RunResult)
	require.True(t, ok)
	assert.Equal(t, "example", published.Site)
}

func TestCoordinatorRunBadSeedURL(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(newFakeBrowser(newFakeSite(nil)), &fakeSink{}, &fakeHistory{}, &fakePublisher{})

	result := c.Run(context.Background(), SiteRun{
		Name:     "broken",
		URL:      "ftp://example.com/",
		MaxPages: 5,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorText, "unsupported scheme")
	assert.Zero(t, result.PagesScraped)
}

func TestCoordinatorRunRejectsZeroBudget(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(newFakeBrowser(newFakeSite(nil)), &fakeSink{}, &fakeHistory{}, &fakePublisher{})

	result := c.Run(context.Background(), SiteRun{
		Name:     "zero",
		URL:      "https://example.com/",
		MaxPages: 0,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorText, "max pages")
}

func TestCoordinatorRunBrowserFailureIsContained(t *testing.T) {
	t.Parallel()

	browser := newFakeBrowser(newFakeSite(nil))
	browser.openErr = errors.New("chrome exited unexpectedly")
	history := &fakeHistory{}
	c := newTestCoordinator(browser, &fakeSink{}, history, &fakePublisher{})

	result := c.Run(context.Background(), SiteRun{
		Name:     "down",
		URL:      "https://example.com/",
		MaxPages: 5,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorText, "chrome exited unexpectedly")

	// The failed outcome still lands in history for the schedule view.
	require.Len(t, history.results, 1)
	assert.False(t, history.results[0].Success)
}

func TestCoordinatorRunSinkFailure(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]string{
		"https://example.com/": page("Home"),
	})
	sink := &fakeSink{err: errors.New("disk full")}
	c := newTestCoordinator(newFakeBrowser(site), sink, &fakeHistory{}, &fakePublisher{})

	result := c.Run(context.Background(), SiteRun{
		Name:     "example",
		URL:      "https://example.com/",
		MaxPages: 5,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorText, "disk full")
	assert.Equal(t, 1, result.PagesScraped)
}

func TestCoordinatorRunWithoutReporters(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]string{
		"https://example.com/": page("Home"),
	})
	c := NewCoordinator(
		newFakeBrowser(site),
		NewDOMSanitizer(),
		&fakeSink{},
		nil,
		nil,
		&fakeClock{now: extractTestTime},
		CoordinatorConfig{PoolSize: 1, BatchSize: 1},
		zap.NewNop(),
	)

	result := c.Run(context.Background(), SiteRun{
		Name:     "bare",
		URL:      "https://example.com/",
		MaxPages: 1,
	})
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.PagesScraped)
}

func TestCoordinatorRunTimestamps(t *testing.T) {
	t.Parallel()

	site := newFakeSite(map[string]string{
		"https://example.com/": page("Home"),
	})
	c := newTestCoordinator(newFakeBrowser(site), &fakeSink{}, &fakeHistory{}, &fakePublisher{})

	result := c.Run(context.Background(), SiteRun{
		Name:     "example",
		URL:      "https://example.com/",
		MaxPages: 1,
	})

	assert.Equal(t, extractTestTime, result.StartedAt)
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
	assert.WithinDuration(t, time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), result.StartedAt, 0)
}
