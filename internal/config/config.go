// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Output    OutputConfig    `mapstructure:"output"`
	History   HistoryConfig   `mapstructure:"history"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ScraperConfig governs crawl behavior for every site run.
type ScraperConfig struct {
	MaxPages           int                      `mapstructure:"max_pages"`
	Headless           bool                     `mapstructure:"headless"`
	UserAgent          string                   `mapstructure:"user_agent"`
	NavTimeoutSeconds  int                      `mapstructure:"nav_timeout_seconds"`
	DomainQPS          float64                  `mapstructure:"domain_qps"`
	PagePool           PagePoolConfig           `mapstructure:"page_pool"`
	ParallelProcessing ParallelProcessingConfig `mapstructure:"parallel_processing"`
	Scroll             ScrollConfig             `mapstructure:"scroll"`
}

// PagePoolConfig fixes the number of reusable browser tabs.
type PagePoolConfig struct {
	Size int `mapstructure:"size"`
}

// ParallelProcessingConfig caps how many pages are dispatched per batch.
type ParallelProcessingConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// ScrollConfig bounds the scroll-to-bottom loop used to trigger lazy content.
type ScrollConfig struct {
	MaxScrolls   int     `mapstructure:"max_scrolls"`
	DelaySeconds float64 `mapstructure:"scroll_delay"`
}

// OutputConfig selects where page records are written.
type OutputConfig struct {
	Directory string `mapstructure:"directory"`
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// HistoryConfig selects where run results are recorded.
type HistoryConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
}

// PublisherConfig holds metadata for run-completed notifications.
type PublisherConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the status HTTP server started in schedule mode.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Site describes one scheduled website from websites.json.
type Site struct {
	URL      string `mapstructure:"url" json:"url"`
	Name     string `mapstructure:"name" json:"name"`
	Schedule string `mapstructure:"schedule" json:"schedule"`
	MaxPages int    `mapstructure:"max_pages" json:"max_pages"`
	Enabled  bool   `mapstructure:"enabled" json:"enabled"`
}

// Load builds a Config from disk/environment.
// An empty path falls back to config.json in the working directory.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	} else {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

/// LoadSites reads the website list ({"websites": [...]}) from path.
func LoadSites(path string) ([]Site, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read websites config: %w", err)
	}

	var wrapper struct {
		Websites []Site `mapstructure:"websites"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal websites config: %w", err)
	}

	seen := make(map[string]struct{}, len(wrapper.Websites))
	for _, site := range wrapper.Websites {
		if site.Name == "" {
			return nil, fmt.Errorf("website entry for %q is missing a name", site.URL)
		}
		if site.URL == "" {
			return nil, fmt.Errorf("website %q is missing a url", site.Name)
		}
		key := strings.ToLower(site.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate website name %q", site.Name)
		}
		seen[key] = struct{}{}
	}
	return wrapper.Websites, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scraper.max_pages", 25)
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.user_agent", "website-scraper/1.0 (+https://github.com/VikramTiwari/website-scraper)")
	v.SetDefault("scraper.nav_timeout_seconds", 30)
	v.SetDefault("scraper.domain_qps", 0)
	v.SetDefault("scraper.page_pool.size", 4)
	v.SetDefault("scraper.parallel_processing.batch_size", 4)
	v.SetDefault("scraper.scroll.max_scrolls", 5)
	v.SetDefault("scraper.scroll.scroll_delay", 0.5)
	v.SetDefault("output.directory", "outputs")
	v.SetDefault("output.provider", "local")
	v.SetDefault("history.provider", "memory")
	v.SetDefault("publisher.provider", "noop")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper.max_pages must be > 0")
	}
	if c.Scraper.PagePool.Size <= 0 {
		return fmt.Errorf("scraper.page_pool.size must be > 0")
	}
	if c.Scraper.ParallelProcessing.BatchSize <= 0 {
		return fmt.Errorf("scraper.parallel_processing.batch_size must be > 0")
	}
	if c.Scraper.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.nav_timeout_seconds must be > 0")
	}
	if c.Scraper.DomainQPS < 0 {
		return fmt.Errorf("scraper.domain_qps must be >= 0")
	}
	if c.Scraper.Scroll.MaxScrolls < 0 {
		return fmt.Errorf("scraper.scroll.max_scrolls must be >= 0")
	}
	switch c.Output.Provider {
	case "local", "memory":
		if c.Output.Directory == "" {
			return fmt.Errorf("output.directory must be set")
		}
	case "noop":
	case "gcs":
		if c.Output.GCSBucket == "" {
			return fmt.Errorf("output.gcs_bucket must be set when output.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown output provider: %s", c.Output.Provider)
	}
	switch c.History.Provider {
	case "memory":
	case "postgres":
		if c.History.DSN == "" {
			return fmt.Errorf("history.dsn must be set when history.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown history provider: %s", c.History.Provider)
	}
	switch c.Publisher.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Publisher.ProjectID == "" || c.Publisher.Topic == "" {
			return fmt.Errorf("publisher.project_id and publisher.topic must be set when publisher.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown publisher provider: %s", c.Publisher.Provider)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the status server is enabled")
	}
	return nil
}

// NavTimeout converts the configured navigation timeout into a duration.
func (c ScraperConfig) NavTimeout() time.Duration {
	return time.Duration(c.NavTimeoutSeconds) * time.Second
}

// ScrollDelay converts the configured scroll delay into a duration.
func (c ScrollConfig) ScrollDelay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// SiteBudget returns the page budget for a site, falling back to the
// general scraper default when the site does not override it.
func (c Config) SiteBudget(site Site) int {
	if site.MaxPages > 0 {
		return site.MaxPages
	}
	return c.Scraper.MaxPages
}
