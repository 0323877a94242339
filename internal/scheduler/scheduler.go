// Package scheduler fires site runs on cron schedules. Each site runs on its
// own loop, so a slow or failing site never delays the others, and the next
// fire time is always computed from the moment the previous run finished.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/VikramTiwari/website-scraper/internal/config"
	"github.com/VikramTiwari/website-scraper/internal/scraper"
)

// Runner executes one full site crawl. *scraper.Coordinator satisfies it.
type Runner interface {
	Run(ctx context.Context, run scraper.SiteRun) scraper.RunResult
}

// ScheduleEntry is a snapshot of one scheduled site, served by the status API.
type ScheduleEntry struct {
	Site     string    `json:"site"`
	URL      string    `json:"url"`
	Schedule string    `json:"schedule"`
	NextFire time.Time `json:"next_fire"`
}

type entry struct {
	site     config.Site
	budget   int
	schedule cron.Schedule

	mu       sync.Mutex
	nextFire time.Time
}

func (e *entry) setNextFire(t time.Time) {
	e.mu.Lock()
	e.nextFire = t
	e.mu.Unlock()
}

func (e *entry) snapshot() ScheduleEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ScheduleEntry{
		Site:     e.site.Name,
		URL:      e.site.URL,
		Schedule: e.site.Schedule,
		NextFire: e.nextFire,
	}
}

func (e *entry) siteRun() scraper.SiteRun {
	return scraper.SiteRun{
		Name:     e.site.Name,
		URL:      e.site.URL,
		MaxPages: e.budget,
	}
}

// Scheduler owns the per-site crawl loops.
type Scheduler struct {
	runner  Runner
	clock   scraper.Clock
	logger  *zap.Logger
	entries []*entry
	sites   []config.Site
	budgets map[string]int
}

// New builds an empty scheduler; register sites with AddSites.
func New(runner Runner, clock scraper.Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:  runner,
		clock:   clock,
		logger:  logger,
		budgets: make(map[string]int),
	}
}

// AddSites registers sites for scheduling. Disabled sites are skipped, and a
// site whose cron expression does not parse is skipped with a warning so one
// typo cannot take down the whole schedule. Returns the number of sites that
// made it onto the schedule.
func (s *Scheduler) AddSites(sites []config.Site, budget func(config.Site) int) int {
	added := 0
	for _, site := range sites {
		s.sites = append(s.sites, site)
		s.budgets[strings.ToLower(site.Name)] = budget(site)
		if !site.Enabled {
			s.logger.Info("site disabled, not scheduling", zap.String("site", site.Name))
			continue
		}
		schedule, err := cron.ParseStandard(site.Schedule)
		if err != nil {
			s.logger.Warn("invalid cron expression, site will not be scheduled",
				zap.String("site", site.Name),
				zap.String("schedule", site.Schedule),
				zap.Error(err),
			)
			continue
		}
		s.entries = append(s.entries, &entry{
			site:     site,
			budget:   budget(site),
			schedule: schedule,
		})
		added++
	}
	return added
}

// Entries returns a snapshot of the scheduled sites and their next fire times.
func (s *Scheduler) Entries() []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.snapshot())
	}
	return out
}

// Start runs every scheduled site loop until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.entries) == 0 {
		s.logger.Warn("no sites scheduled")
	}
	var wg sync.WaitGroup
	for _, e := range s.entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			s.runLoop(ctx, e)
		}(e)
	}
	wg.Wait()
}

// runLoop sleeps until the entry's next fire time, runs the site, and then
// schedules the following fire from the completion instant. A run that
// overlaps its next slot simply pushes that slot back; runs of the same site
// never overlap each other.
func (s *Scheduler) runLoop(ctx context.Context, e *entry) {
	next := e.schedule.Next(s.clock.Now())
	e.setNextFire(next)
	s.logger.Info("site scheduled",
		zap.String("site", e.site.Name),
		zap.String("schedule", e.site.Schedule),
		zap.Time("next_fire", next),
	)

	for {
		wait := next.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runner.Run(ctx, e.siteRun())
		if ctx.Err() != nil {
			return
		}

		next = e.schedule.Next(s.clock.Now())
		e.setNextFire(next)
		s.logger.Info("next fire computed",
			zap.String("site", e.site.Name),
			zap.Time("next_fire", next),
		)
	}
}

// RunOnce crawls sites immediately, ignoring their cron schedules. With an
// empty filter it runs every enabled site in order; a named site runs even
// when disabled, since the operator asked for it explicitly.
func (s *Scheduler) RunOnce(ctx context.Context, siteFilter string) ([]scraper.RunResult, error) {
	var results []scraper.RunResult
	matched := false
	for _, site := range s.sites {
		if siteFilter == "" {
			if !site.Enabled {
				continue
			}
		} else if !strings.EqualFold(site.Name, siteFilter) {
			continue
		}
		matched = true
		results = append(results, s.runner.Run(ctx, scraper.SiteRun{
			Name:     site.Name,
			URL:      site.URL,
			MaxPages: s.budgets[strings.ToLower(site.Name)],
		}))
		if ctx.Err() != nil {
			break
		}
	}
	if siteFilter != "" && !matched {
		return nil, fmt.Errorf("unknown website %q", siteFilter)
	}
	return results, nil
}

// AllSucceeded reports whether every run in the batch finished successfully.
func AllSucceeded(results []scraper.RunResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
