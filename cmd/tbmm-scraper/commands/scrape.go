package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/tbmm-scraper/cache"
	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/crawl"
	"github.com/use-agent/tbmm-scraper/engine"
	"github.com/use-agent/tbmm-scraper/fetcher"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/scraper"
	"github.com/use-agent/tbmm-scraper/store"
	"github.com/use-agent/tbmm-scraper/webhook"
)

// Fetch modes, see config.EngineConfig.
const (
	modeBrowser = "browser"
	modeHTTP    = "http"
	modeAuto    = "auto"
)

func init() {
	f := scrapeCmd.Flags()
	f.Int("max-details", 0, "Number of detail pages to read (env MAX_PROPOSALS).")
	f.Int("max-pages", 0, "Hard limit on list pages per run.")
	f.String("output", "", "Path of the JSON output file.")
	f.String("mode", "", `Fetch mode: "browser", "http" or "auto".`)
	f.Bool("headless", false, "Run the browser without a window.")
	f.Bool("search", false, "Submit the list page search form before collecting.")
	f.String("keyword", "", "Search keyword, implies --search.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--max-details N] [--output path]",
	Short: "Walks the proposal list, reads detail pages and writes the JSON dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		applyScrapeFlags(cmd, cfg)
		initLogger(cfg.Log)
		return runScrape(cmd.Context(), cfg)
	},
}

// applyScrapeFlags overrides configuration with the flags given on the
// command line. Flags left unset keep the environment values.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("max-details") {
		cfg.Crawl.MaxDetails, _ = f.GetInt("max-details")
	}
	if f.Changed("max-pages") {
		cfg.Crawl.MaxPages, _ = f.GetInt("max-pages")
	}
	if f.Changed("output") {
		cfg.Output.Path, _ = f.GetString("output")
	}
	if f.Changed("mode") {
		cfg.Engine.Mode, _ = f.GetString("mode")
	}
	if f.Changed("headless") {
		cfg.Browser.Headless, _ = f.GetBool("headless")
	}
	if f.Changed("search") {
		cfg.Search.Enabled, _ = f.GetBool("search")
	}
	if f.Changed("keyword") {
		cfg.Search.Keyword, _ = f.GetString("keyword")
		cfg.Search.Enabled = true
	}
}

func runScrape(ctx context.Context, cfg *config.Config) error {
	switch cfg.Engine.Mode {
	case modeBrowser, modeHTTP, modeAuto:
	default:
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown fetch mode %q", cfg.Engine.Mode), nil)
	}

	slog.Info("tbmm-scraper starting",
		"list_url", cfg.Crawl.ListURL,
		"mode", cfg.Engine.Mode,
		"max_pages", cfg.Crawl.MaxPages,
		"max_details", cfg.Crawl.MaxDetails,
		"output", cfg.Output.Path,
	)

	// ── 1. Browser session, owned by this run ───────────────────────
	var session *scraper.Session
	if cfg.Engine.Mode != modeHTTP {
		s, err := scraper.NewSession(cfg.Browser, cfg.Scraper)
		if err != nil {
			return err
		}
		defer s.Close()
		session = s
	}

	// ── 2. Fetch pipeline ──────────────────────────────────────────
	p := buildPipeline(cfg, session)

	// ── 3. Previous output for detail reuse ────────────────────────
	var reuse *cache.Cache
	if cfg.Output.ReuseMaxAge > 0 {
		prev, err := store.Load(cfg.Output.Path)
		if err != nil {
			slog.Warn("previous output unreadable, reuse disabled", "path", cfg.Output.Path, "error", err)
		} else {
			reuse = cache.FromRecords(prev)
			slog.Info("reusing enriched records", "available", reuse.Len(), "max_age", cfg.Output.ReuseMaxAge)
		}
	}

	// ── 4. Run ─────────────────────────────────────────────────────
	job := &crawl.Job{
		ListURL: cfg.Crawl.ListURL,
		Paginator: crawl.NewPaginator(p.list, p.nav, crawl.PaginatorConfig{
			MaxPages:  cfg.Crawl.MaxPages,
			PageDelay: cfg.Crawl.PageDelay,
			DebugDir:  cfg.Crawl.DebugDir,
		}),
		Enricher: crawl.NewEnricher(p.detail, crawl.EnricherConfig{
			MaxDetails:  cfg.Crawl.MaxDetails,
			DetailDelay: cfg.Crawl.DetailDelay,
			ReuseMaxAge: cfg.Output.ReuseMaxAge,
		}, reuse),
	}

	res, err := job.Run(ctx)
	if err != nil {
		slog.Warn("run interrupted, output not written",
			"records", len(res.Records),
			"error", err,
		)
		return err
	}

	// ── 5. Persist ─────────────────────────────────────────────────
	if err := store.Save(cfg.Output.Path, res.Records); err != nil {
		return err
	}
	if len(res.Records) == 0 {
		slog.Warn("no proposals found, wrote empty dataset", "path", cfg.Output.Path)
	}
	logSummary(res, cfg.Output.Path)

	// ── 6. Notify ──────────────────────────────────────────────────
	notifier := webhook.New(cfg.Webhook.URL, cfg.Webhook.Secret)
	event := &webhook.Event{
		Type:      webhook.EventCompleted,
		Timestamp: time.Now().Unix(),
		Data: webhook.CompletedData{
			Output:   cfg.Output.Path,
			Records:  len(res.Records),
			Pages:    res.Pages,
			Enriched: res.Summary.Enriched,
			Summary:  res.Summary,
		},
	}
	if err := notifier.Notify(ctx, event); err != nil {
		slog.Warn("completion webhook not delivered", "error", err)
	}
	return nil
}

// pipeline is the set of fetchers one run uses.
type pipeline struct {
	list   crawl.PageFetcher
	detail crawl.PageFetcher
	nav    crawl.Navigator
}

// buildPipeline wires the fetchers for the configured mode. session is nil
// in http mode.
//
//	browser: list, next page and detail pages all go through the session.
//	http:    no browser; pagination follows next links only.
//	auto:    list pages in the browser; detail pages try plain HTTP first
//	         and fall back to the session.
func buildPipeline(cfg *config.Config, session *scraper.Session) pipeline {
	if session == nil {
		httpEngine := engine.NewHTTPEngine(cfg.Engine.HTTPTimeout)
		d := engine.NewDispatcher([]engine.Engine{httpEngine}, cfg.Engine.HTTPTimeout, nil)
		f := fetcher.New(d, cfg.Fetch)
		if cfg.Search.Enabled {
			slog.Warn("search form needs the browser, ignored in http mode")
		}
		return pipeline{list: f, detail: f, nav: crawl.LinkNavigator{Fetch: f}}
	}

	browser := fetcher.New(session, cfg.Fetch)
	p := pipeline{
		list:   browser,
		detail: browser,
		nav: crawl.ClickNavigator{
			Clicker:  session,
			Fallback: &crawl.LinkNavigator{Fetch: browser},
		},
	}
	if cfg.Search.Enabled {
		p.list = crawl.SearchFetcher{Pages: browser, Searcher: session, Options: cfg.Search}
	}
	if cfg.Engine.Mode == modeAuto {
		httpEngine := engine.NewHTTPEngine(cfg.Engine.HTTPTimeout, engine.WithSoftFailureEscalation())
		rodEngine := engine.NewRodEngine(session.Load, session.Reread)
		memory := engine.NewDomainMemory(cfg.Engine.MemoryTTL)
		d := engine.NewDispatcher([]engine.Engine{httpEngine, rodEngine}, cfg.Scraper.NavigationTimeout, memory)
		p.detail = fetcher.New(d, cfg.Fetch)
	}
	return p
}

func logSummary(res *crawl.JobResult, path string) {
	slog.Info("proposals saved",
		"path", path,
		"total", res.Summary.Total,
		"enriched", res.Summary.Enriched,
		"pages", res.Pages,
		"stop_reason", res.StopReason,
		"duration", res.Duration.Round(time.Millisecond),
	)
	for _, sc := range res.Summary.Statuses {
		slog.Info("status", "status", sc.Status, "count", sc.Count)
	}
}
