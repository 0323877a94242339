package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/api"
	"github.com/VikramTiwari/website-scraper/internal/app"
	"github.com/VikramTiwari/website-scraper/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	var (
		runOnce bool
		website string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the website list on its cron schedules",
		Long: `Reads the website list, schedules every enabled site on its cron
expression, and keeps crawling until interrupted. Each site's next run is
computed from the moment its previous run finished, so runs of the same site
never overlap.

With --run-once the sites are crawled immediately one after another and the
process exits; combine with --website to crawl a single site from the list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfgFile, sitesFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if website != "" && !runOnce {
				return fmt.Errorf("--website requires --run-once")
			}

			if runOnce {
				results, err := a.Scheduler.RunOnce(ctx, website)
				if err != nil {
					return err
				}
				if !scheduler.AllSucceeded(results) {
					return fmt.Errorf("one or more site runs failed")
				}
				a.Logger.Info("all runs finished", zap.Int("sites", len(results)))
				return nil
			}

			if a.Config.Server.Enabled {
				startStatusServer(ctx, a)
			}
			a.Scheduler.Start(ctx)
			a.Logger.Info("scheduler stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnce, "run-once", false, "crawl every enabled site immediately and exit")
	cmd.Flags().StringVar(&website, "website", "", "with --run-once, crawl only the named site")
	return cmd
}

// startStatusServer serves health, metrics, schedule, and run-history routes
// until ctx is canceled.
func startStatusServer(ctx context.Context, a *app.App) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           api.NewServer(a.Scheduler, a.History, a.Logger.Named("api")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.Logger.Info("status server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error("status server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("status server shutdown", zap.Error(err))
		}
	}()
}
