// Package crawl walks the proposal list, collects distinct records and
// enriches them from their detail pages.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/use-agent/tbmm-scraper/extract"
	"github.com/use-agent/tbmm-scraper/fetcher"
	"github.com/use-agent/tbmm-scraper/models"
)

// State is a Paginator state.
type State int

const (
	Fetching State = iota
	Extracting
	Done
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Extracting:
		return "extracting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Reasons a pagination run ended.
const (
	StopEmptyPage    = "empty_page"
	StopNoNext       = "no_next_control"
	StopNextDisabled = "next_disabled"
	StopMaxPages     = "max_pages"
	StopRepeatedPage = "repeated_page"
	StopFetchFailed  = "fetch_failed"
)

// PageFetcher loads a page by URL. *fetcher.Fetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Navigator moves from the current list page to the next one and returns
// the new page content and URL.
type Navigator interface {
	Next(ctx context.Context, current *extract.ListPage, currentURL string) (html, pageURL string, err error)
}

// PaginatorConfig tunes a Paginator.
type PaginatorConfig struct {
	// MaxPages stops the run after this many list pages. <= 0 means 1.
	MaxPages int

	// PageDelay is the pause before moving to the next page.
	PageDelay time.Duration

	// DebugDir receives debug_page.html when a page yields nothing.
	DebugDir string
}

// Paginator drives the Fetching -> Extracting -> Fetching | Done cycle over
// the proposal list. The records collected by a run live in its
// Deduplicator.
type Paginator struct {
	fetch PageFetcher
	nav   Navigator
	cfg   PaginatorConfig
	sleep fetcher.SleepFunc
	now   func() time.Time

	// OnState, when set, is called on every state entry with the page
	// number the state applies to.
	OnState func(state State, page int)
}

// NewPaginator creates a Paginator. The first page is loaded with fetch;
// later pages through nav.
func NewPaginator(fetch PageFetcher, nav Navigator, cfg PaginatorConfig) *Paginator {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	return &Paginator{
		fetch: fetch,
		nav:   nav,
		cfg:   cfg,
		sleep: fetcher.Sleep,
		now:   time.Now,
	}
}

// PageResult summarises a pagination run.
type PageResult struct {
	Pages      int
	StopReason string
}

// Run walks the list starting at listURL and adds every valid row to dedup.
// A list page that cannot be loaded ends the run normally; only context
// cancellation is returned as an error.
func (p *Paginator) Run(ctx context.Context, listURL string, dedup *Deduplicator) (*PageResult, error) {
	var (
		state   = Fetching
		pageNum = 1
		pageURL = listURL
		html    string
		current *extract.ListPage
		guard   repeatGuard
		res     = &PageResult{}
	)

	for state != Done {
		p.enter(state, pageNum)

		switch state {
		case Fetching:
			var err error
			if pageNum == 1 {
				html, err = p.fetch.Fetch(ctx, listURL)
			} else {
				html, pageURL, err = p.nav.Next(ctx, current, pageURL)
			}
			if err != nil {
				if ctx.Err() != nil || isCanceled(err) {
					return res, err
				}
				slog.WarnContext(ctx, "list page unavailable", "page", pageNum, "url", pageURL, "error", err)
				res.StopReason = StopFetchFailed
				state = Done
				continue
			}
			state = Extracting

		case Extracting:
			res.Pages = pageNum
			page, err := extract.ParseListPage(html, pageURL)
			if err != nil {
				slog.WarnContext(ctx, "list page unparseable", "page", pageNum, "error", err)
				res.StopReason = StopEmptyPage
				state = Done
				continue
			}
			current = page

			fetchedAt := p.now().UTC()
			added := 0
			for _, row := range page.Rows {
				if dedup.Add(row.Proposal(fetchedAt)) {
					added++
				}
			}
			slog.InfoContext(ctx, "list page extracted",
				"page", pageNum,
				"rows", len(page.Rows),
				"new", added,
				"source", page.Source,
			)

			res.StopReason = p.stopReason(page, pageNum, &guard)
			if res.StopReason != "" {
				if res.StopReason == StopEmptyPage {
					p.dumpDebug(ctx, html)
				}
				slog.InfoContext(ctx, "pagination finished", "pages", pageNum, "reason", res.StopReason)
				state = Done
				continue
			}

			if err := p.sleep(ctx, p.cfg.PageDelay); err != nil {
				return res, models.NewScrapeError(models.ErrCodeCanceled, "pagination interrupted", err)
			}
			pageNum++
			state = Fetching
		}
	}
	p.enter(Done, pageNum)
	return res, nil
}

// stopReason returns why the run must end after page, or "" to continue.
func (p *Paginator) stopReason(page *extract.ListPage, pageNum int, guard *repeatGuard) string {
	switch {
	case len(page.Rows) == 0:
		return StopEmptyPage
	case guard.repeated(page.Rows):
		return StopRepeatedPage
	case pageNum >= p.cfg.MaxPages:
		return StopMaxPages
	case page.Next == nil:
		return StopNoNext
	case !page.HasNext():
		return StopNextDisabled
	default:
		return ""
	}
}

func (p *Paginator) enter(s State, page int) {
	if p.OnState != nil {
		p.OnState(s, page)
	}
}

// dumpDebug writes the page that yielded nothing to DebugDir so the markup
// can be inspected.
func (p *Paginator) dumpDebug(ctx context.Context, html string) {
	if p.cfg.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(p.cfg.DebugDir, 0o755); err != nil {
		slog.WarnContext(ctx, "debug dir unavailable", "dir", p.cfg.DebugDir, "error", err)
		return
	}
	path := filepath.Join(p.cfg.DebugDir, "debug_page.html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		slog.WarnContext(ctx, "debug page not written", "path", path, "error", err)
		return
	}
	slog.InfoContext(ctx, "debug page written", "path", path)
}

func isCanceled(err error) bool {
	code := models.ErrorCode(err)
	return code == models.ErrCodeCanceled || errors.Is(err, context.Canceled)
}
