// Package app wires configuration into the concrete services the commands
// run: browser, sink, history, publisher, coordinator, and scheduler.
package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/clock/system"
	"github.com/VikramTiwari/website-scraper/internal/config"
	"github.com/VikramTiwari/website-scraper/internal/history"
	historymem "github.com/VikramTiwari/website-scraper/internal/history/memory"
	historypg "github.com/VikramTiwari/website-scraper/internal/history/postgres"
	uuidgen "github.com/VikramTiwari/website-scraper/internal/id/uuid"
	"github.com/VikramTiwari/website-scraper/internal/logging"
	pubmem "github.com/VikramTiwari/website-scraper/internal/publisher/memory"
	pubnoop "github.com/VikramTiwari/website-scraper/internal/publisher/noop"
	pubgcp "github.com/VikramTiwari/website-scraper/internal/publisher/pubsub"
	"github.com/VikramTiwari/website-scraper/internal/renderer/headless"
	"github.com/VikramTiwari/website-scraper/internal/renderer/static"
	"github.com/VikramTiwari/website-scraper/internal/scheduler"
	"github.com/VikramTiwari/website-scraper/internal/scraper"
	"github.com/VikramTiwari/website-scraper/internal/sink"
	"github.com/VikramTiwari/website-scraper/internal/storage"
	storagegcs "github.com/VikramTiwari/website-scraper/internal/storage/gcs"
	storagelocal "github.com/VikramTiwari/website-scraper/internal/storage/local"
	storagemem "github.com/VikramTiwari/website-scraper/internal/storage/memory"
)

// App holds the wired services for one process.
type App struct {
	Config      config.Config
	Sites       []config.Site
	Logger      *zap.Logger
	Browser     scraper.Browser
	Coordinator *scraper.Coordinator
	Scheduler   *scheduler.Scheduler
	History     history.Store

	closers []func()
}

// New builds the full service graph from config. sitesPath may be empty when
// the caller does not need the website list (one-shot scrape mode).
func New(ctx context.Context, cfgPath, sitesPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	if sitesPath != "" {
		sites, err := config.LoadSites(sitesPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Sites = sites
	}

	if err := a.buildBrowser(); err != nil {
		a.Close()
		return nil, err
	}

	provider, err := a.buildStorage(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	store, err := a.buildHistory(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.History = store

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	recordSink := sink.New(provider, uuidgen.New(), logger.Named("sink"))
	a.Coordinator = scraper.NewCoordinator(
		a.Browser,
		scraper.NewDOMSanitizer(),
		recordSink,
		store,
		publisher,
		system.Clock{},
		scraper.CoordinatorConfig{
			PoolSize:  cfg.Scraper.PagePool.Size,
			BatchSize: cfg.Scraper.ParallelProcessing.BatchSize,
			Topic:     cfg.Publisher.Topic,
		},
		logger.Named("coordinator"),
	)

	a.Scheduler = scheduler.New(a.Coordinator, system.Clock{}, logger.Named("scheduler"))
	a.Scheduler.AddSites(a.Sites, cfg.SiteBudget)

	return a, nil
}

// Close tears down services in reverse construction order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) buildBrowser() error {
	sc := a.Config.Scraper
	if sc.Headless {
		browser, err := headless.New(headless.Config{
			Headless:          true,
			UserAgent:         sc.UserAgent,
			NavigationTimeout: sc.NavTimeout(),
			MaxScrolls:        sc.Scroll.MaxScrolls,
			ScrollDelay:       sc.Scroll.ScrollDelay(),
			DomainQPS:         sc.DomainQPS,
		}, a.Logger.Named("browser"))
		if err != nil {
			return fmt.Errorf("start headless browser: %w", err)
		}
		a.Browser = browser
	} else {
		a.Browser = static.New(static.Config{
			UserAgent: sc.UserAgent,
			Timeout:   sc.NavTimeout(),
		}, a.Logger.Named("browser"))
	}
	a.closers = append(a.closers, func() {
		if err := a.Browser.Close(); err != nil {
			a.Logger.Warn("close browser", zap.Error(err))
		}
	})
	return nil
}

func (a *App) buildStorage(ctx context.Context) (storage.Provider, error) {
	out := a.Config.Output
	switch out.Provider {
	case "local":
		provider, err := storagelocal.New(storagelocal.Config{BaseDir: out.Directory})
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return provider, nil
	case "memory":
		return storagemem.NewBlobStore(), nil
	case "noop":
		return storage.NoOpProvider{}, nil
	case "gcs":
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		provider, err := storagegcs.New(client, storagegcs.Config{Bucket: out.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown output provider: %s", out.Provider)
	}
}

func (a *App) buildHistory(ctx context.Context) (history.Store, error) {
	switch a.Config.History.Provider {
	case "memory":
		return historymem.New(), nil
	case "postgres":
		store, err := historypg.New(ctx, historypg.Config{DSN: a.Config.History.DSN})
		if err != nil {
			return nil, fmt.Errorf("init postgres history: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown history provider: %s", a.Config.History.Provider)
	}
}

func (a *App) buildPublisher(ctx context.Context) (scraper.Publisher, error) {
	pub := a.Config.Publisher
	switch pub.Provider {
	case "noop":
		return pubnoop.New(), nil
	case "memory":
		return pubmem.New(), nil
	case "pubsub":
		client, err := pubsub.NewClient(ctx, pub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		topic := client.Topic(pub.Topic)
		publisher := pubgcp.New(topic)
		a.closers = append(a.closers, publisher.Stop)
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", pub.Provider)
	}
}
