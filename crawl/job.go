package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/models"
)

// Searcher fills in and submits the list page's search form, returning the
// results page. scraper.Session implements it.
type Searcher interface {
	SubmitSearch(ctx context.Context, opts config.SearchConfig) (string, error)
}

// SearchFetcher loads the list page, submits the search form on it and
// hands back the results. A failed submission is logged and the page as
// loaded is used.
type SearchFetcher struct {
	Pages    PageFetcher
	Searcher Searcher
	Options  config.SearchConfig
}

func (s SearchFetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := s.Pages.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	results, err := s.Searcher.SubmitSearch(ctx, s.Options)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.WarnContext(ctx, "search form not submitted, using list page as loaded", "error", err)
		return html, nil
	}
	return results, nil
}

// Job is one complete run: walk the list, then enrich the collected stubs.
type Job struct {
	ListURL   string
	Paginator *Paginator
	Enricher  *Enricher
}

// JobResult is the outcome of a run.
type JobResult struct {
	Records    []*models.Proposal
	Pages      int
	StopReason string
	Enrich     EnrichStats
	Summary    models.Summary
	Duration   time.Duration
}

// Run executes the job. Records are returned in first-seen order, enriched
// or not. A run that finds nothing returns an empty, non-nil slice. The
// error is non-nil only when ctx is done; partial records are returned with
// it but should not be persisted.
func (j *Job) Run(ctx context.Context) (*JobResult, error) {
	start := time.Now()
	dedup := NewDeduplicator()
	res := &JobResult{Records: []*models.Proposal{}}

	slog.InfoContext(ctx, "job started", "list_url", j.ListURL)

	pr, err := j.Paginator.Run(ctx, j.ListURL, dedup)
	if pr != nil {
		res.Pages, res.StopReason = pr.Pages, pr.StopReason
	}
	if dedup.Len() > 0 {
		res.Records = dedup.Records()
	}
	if err != nil {
		return res, err
	}

	if j.Enricher != nil && len(res.Records) > 0 {
		res.Enrich, err = j.Enricher.Enrich(ctx, res.Records)
		if err != nil {
			return res, err
		}
	}

	for _, p := range res.Records {
		p.Normalize()
	}
	res.Summary = models.Summarize(res.Records)
	res.Summary.Pages = res.Pages
	res.Duration = time.Since(start)

	slog.InfoContext(ctx, "job finished",
		"records", len(res.Records),
		"pages", res.Pages,
		"stop_reason", res.StopReason,
		"enriched", res.Enrich.Enriched,
		"reused", res.Enrich.Reused,
		"detail_failures", res.Enrich.Failed,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}
