// Package cmd defines the CLI commands for the website-scraper executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	sitesFile string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "website-scraper",
		Short: "Crawls configured websites and stores structured page records",
		Long: `website-scraper renders websites with headless Chrome, extracts
structured content from every reachable same-site page, and writes one JSON
record per page to the configured storage backend. Sites can be crawled once
from the command line or continuously on cron schedules.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.json in the working directory)")
	cmd.PersistentFlags().StringVar(&sitesFile, "websites", "websites.json", "website list file")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newScheduleCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
