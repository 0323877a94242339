package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/app"
	"github.com/VikramTiwari/website-scraper/internal/config"
	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

func newScrapeCmd() *cobra.Command {
	var maxPages int
	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Crawl a single website once and exit",
		Long: `Crawls the given website immediately, following same-site links up
to the configured page budget, and writes the extracted records to the
configured storage backend. Without a URL the first enabled site from the
website list is crawled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sites := ""
			if len(args) == 0 {
				sites = sitesFile
			}
			a, err := app.New(ctx, cfgFile, sites)
			if err != nil {
				return err
			}
			defer a.Close()

			budget := a.Config.Scraper.MaxPages
			if maxPages > 0 {
				budget = maxPages
			}

			var seedURL, name string
			if len(args) == 1 {
				seedURL = args[0]
				name = scraper.Hostname(seedURL)
			} else {
				site, ok := firstEnabled(a.Sites)
				if !ok {
					return fmt.Errorf("no url given and no enabled site in %s", sitesFile)
				}
				seedURL, name = site.URL, site.Name
				if maxPages == 0 {
					budget = a.Config.SiteBudget(site)
				}
			}

			result := a.Coordinator.Run(ctx, scraper.SiteRun{
				Name:     name,
				URL:      seedURL,
				MaxPages: budget,
			})
			if !result.Success {
				return fmt.Errorf("scrape failed: %s", result.ErrorText)
			}
			a.Logger.Info("scrape finished",
				zap.String("url", seedURL),
				zap.Int("pages", result.PagesScraped),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "override the configured page budget")
	return cmd
}

func firstEnabled(sites []config.Site) (config.Site, bool) {
	for _, s := range sites {
		if s.Enabled {
			return s, true
		}
	}
	return config.Site{}, false
}
