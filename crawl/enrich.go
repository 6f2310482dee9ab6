package crawl

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/tbmm-scraper/cache"
	"github.com/use-agent/tbmm-scraper/extract"
	"github.com/use-agent/tbmm-scraper/models"
)

// EnricherConfig tunes an Enricher.
type EnricherConfig struct {
	// MaxDetails is how many records, in list order, get their detail page
	// read. 0 skips enrichment.
	MaxDetails int

	// DetailDelay is the minimum spacing between detail page requests.
	DetailDelay time.Duration

	// ReuseMaxAge lets cached records younger than this stand in for a
	// fetch. 0 disables reuse.
	ReuseMaxAge time.Duration
}

// EnrichStats counts what an enrichment pass did.
type EnrichStats struct {
	Attempted int
	Enriched  int
	Reused    int
	Failed    int
}

// Enricher fills stub records in from their detail pages, one page at a
// time.
type Enricher struct {
	fetch   PageFetcher
	cfg     EnricherConfig
	limiter *rate.Limiter
	cache   *cache.Cache
	now     func() time.Time
}

// NewEnricher creates an Enricher. c may be nil.
func NewEnricher(fetch PageFetcher, cfg EnricherConfig, c *cache.Cache) *Enricher {
	limit := rate.Inf
	if cfg.DetailDelay > 0 {
		limit = rate.Every(cfg.DetailDelay)
	}
	return &Enricher{
		fetch:   fetch,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		cache:   c,
		now:     time.Now,
	}
}

// Enrich reads the detail page of the first MaxDetails records and updates
// them in place. A record whose page cannot be read stays a stub. Only
// context cancellation stops the pass early.
func (e *Enricher) Enrich(ctx context.Context, records []*models.Proposal) (EnrichStats, error) {
	var stats EnrichStats

	n := min(e.cfg.MaxDetails, len(records))
	for i := 0; i < n; i++ {
		p := records[i]
		stats.Attempted++

		if e.reuse(p) {
			stats.Reused++
			stats.Enriched++
			slog.DebugContext(ctx, "detail reused", "link", p.Link)
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return stats, models.NewScrapeError(models.ErrCodeCanceled, "enrichment interrupted", err)
		}

		slog.InfoContext(ctx, "fetching detail",
			"index", i+1,
			"of", n,
			"title", truncate(p.Title, 60),
		)
		html, err := e.fetch.Fetch(ctx, p.Link)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			stats.Failed++
			slog.WarnContext(ctx, "detail page skipped", "link", p.Link, "error", err)
			continue
		}

		d := extract.ExtractDetail(html, p.Link)
		Apply(p, d)
		p.EnrichedAt = e.now().UTC()
		if e.cache != nil {
			e.cache.Set(p)
		}
		stats.Enriched++
		slog.InfoContext(ctx, "detail extracted",
			"link", p.Link,
			"chars", len(d.Text),
			"case_number", p.CaseNumber,
			"term_session", p.TermSession,
		)
	}
	return stats, nil
}

// Apply merges a detail page into p. Derived fields found on the page
// replace the row values; a miss keeps what the row had. The status is
// only filled when the row had none.
func Apply(p *models.Proposal, d extract.Detail) {
	p.BodyText = d.Text
	if d.Fields.CaseNumber != models.Unknown {
		p.CaseNumber = d.Fields.CaseNumber
	}
	if d.Fields.TermSession != models.Unknown {
		p.TermSession = d.Fields.TermSession
	}
	if p.Status == "" {
		p.Status = d.Status
	}
	p.Normalize()
}

func (e *Enricher) reuse(p *models.Proposal) bool {
	if e.cache == nil {
		return false
	}
	cached, ok := e.cache.Get(p.Link, e.cfg.ReuseMaxAge)
	if !ok {
		return false
	}
	p.BodyText = cached.BodyText
	p.EnrichedAt = cached.EnrichedAt
	if cached.CaseNumber != models.Unknown {
		p.CaseNumber = cached.CaseNumber
	}
	if cached.TermSession != models.Unknown {
		p.TermSession = cached.TermSession
	}
	if p.Status == "" {
		p.Status = cached.Status
	}
	p.Normalize()
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
