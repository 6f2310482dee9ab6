package crawl

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tbmm-scraper/cache"
	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/store"
)

func TestDeduplicator_Idempotent(t *testing.T) {
	d := NewDeduplicator()
	now := time.Now()

	assert.True(t, d.Add(models.NewStub("Birinci Kanun Teklifi", "https://x/1", now)))
	assert.False(t, d.Add(models.NewStub("Birinci Kanun Teklifi", "https://x/1", now)))
	assert.Equal(t, 1, d.Len())
}

func TestDeduplicator_FirstSeenWins(t *testing.T) {
	d := NewDeduplicator()
	now := time.Now()
	links := []string{"a", "b", "a", "c", "b", "a"}
	for i, l := range links {
		d.Add(models.NewStub(fmt.Sprintf("Teklif başlığı %d", i), "https://x/"+l, now))
	}

	got := d.Records()
	require.Len(t, got, 3)
	assert.Equal(t, "https://x/a", got[0].Link)
	assert.Equal(t, "Teklif başlığı 0", got[0].Title)
	assert.Equal(t, "https://x/b", got[1].Link)
	assert.Equal(t, "https://x/c", got[2].Link)
	assert.True(t, d.Seen("https://x/c"))
	assert.False(t, d.Seen("https://x/d"))
	assert.False(t, d.Add(nil))
}

func detailHTML(caseNo, body string) string {
	return `<html><body><div id="icerik"><h1>Teklif</h1><p>Esas No: ` + caseNo +
		`</p><p>28. Dönem 3. Yasama Yılı</p><p>` + body + `</p></div></body></html>`
}

func stubs(n int) []*models.Proposal {
	out := make([]*models.Proposal, n)
	for i := range out {
		out[i] = models.NewStub(fmt.Sprintf("Kanun Teklifi Numara %d", i+1), fmt.Sprintf("https://x/%d", i+1), time.Now())
	}
	return out
}

func TestEnricher_LimitAndFailures(t *testing.T) {
	var fetched []string
	fetch := fetchFunc(func(_ context.Context, url string) (string, error) {
		fetched = append(fetched, url)
		if url == "https://x/2" {
			return "", models.NewScrapeError(models.ErrCodeNetwork, "page unavailable", errors.New("reset"))
		}
		return detailHTML("2/"+strings.TrimPrefix(url, "https://x/"), strings.Repeat("Madde. ", 30)), nil
	})

	records := stubs(4)
	records[0].Status = models.StatusCommittee

	e := NewEnricher(fetch, EnricherConfig{MaxDetails: 3}, nil)
	stats, err := e.Enrich(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://x/1", "https://x/2", "https://x/3"}, fetched)
	assert.Equal(t, EnrichStats{Attempted: 3, Enriched: 2, Failed: 1}, stats)

	assert.Equal(t, "2/1", records[0].CaseNumber)
	assert.Equal(t, "28/3", records[0].TermSession)
	assert.Equal(t, models.StatusCommittee, records[0].Status)
	assert.True(t, records[0].Enriched())

	assert.False(t, records[1].Enriched())
	assert.Equal(t, models.Unknown, records[1].CaseNumber)

	assert.False(t, records[3].Enriched(), "beyond MaxDetails")
}

func TestApply_KeepsRowValueOnMiss(t *testing.T) {
	p := models.NewStub("Kanun Teklifi Numara 1", "https://x/1", time.Now())
	p.CaseNumber = "2/77"

	e := NewEnricher(fetchFunc(func(context.Context, string) (string, error) {
		return `<html><body><main>` + strings.Repeat("Esas numarası bulunmayan metin. ", 10) + `</main></body></html>`, nil
	}), EnricherConfig{MaxDetails: 1}, nil)

	_, err := e.Enrich(context.Background(), []*models.Proposal{p})
	require.NoError(t, err)
	assert.Equal(t, "2/77", p.CaseNumber)
	assert.Equal(t, models.Unknown, p.TermSession)
}

func TestEnricher_ReusesCache(t *testing.T) {
	prev := models.NewStub("Kanun Teklifi Numara 1", "https://x/1", time.Now().Add(-time.Hour))
	prev.BodyText = "önceki metin"
	prev.CaseNumber = "2/1"
	prev.Status = models.StatusEnacted
	c := cache.FromRecords([]*models.Proposal{prev})

	calls := 0
	fetch := fetchFunc(func(context.Context, string) (string, error) {
		calls++
		return detailHTML("2/9", strings.Repeat("Madde. ", 30)), nil
	})

	records := stubs(2)
	e := NewEnricher(fetch, EnricherConfig{MaxDetails: 2, ReuseMaxAge: 24 * time.Hour}, c)
	stats, err := e.Enrich(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, stats.Reused)
	assert.Equal(t, 2, stats.Enriched)
	assert.Equal(t, "önceki metin", records[0].BodyText)
	assert.Equal(t, models.StatusEnacted, records[0].Status)
	assert.Equal(t, 2, c.Len(), "fresh detail is cached too")
}

func TestEnricher_ReuseKeepsEnrichmentAge(t *testing.T) {
	enrichedAt := time.Now().Add(-2 * time.Hour).UTC()
	prev := models.NewStub("Kanun Teklifi Numara 1", "https://x/1", enrichedAt)
	prev.BodyText = "önceki metin"
	prev.EnrichedAt = enrichedAt

	calls := 0
	fetch := fetchFunc(func(context.Context, string) (string, error) {
		calls++
		return detailHTML("2/9", strings.Repeat("Madde. ", 30)), nil
	})
	path := filepath.Join(t.TempDir(), "proposals.json")

	// first run: the body is young enough and is reused
	first := stubs(1)
	e := NewEnricher(fetch, EnricherConfig{MaxDetails: 1, ReuseMaxAge: 3 * time.Hour}, cache.FromRecords([]*models.Proposal{prev}))
	stats, err := e.Enrich(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Reused)
	assert.True(t, first[0].EnrichedAt.Equal(enrichedAt), "reuse keeps the original enrichment time")
	require.NoError(t, store.Save(path, first))

	// second run: a shorter limit must expire the reused body
	saved, err := store.Load(path)
	require.NoError(t, err)
	second := stubs(1)
	e = NewEnricher(fetch, EnricherConfig{MaxDetails: 1, ReuseMaxAge: time.Hour}, cache.FromRecords(saved))
	stats, err = e.Enrich(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Reused)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "2/9", second[0].CaseNumber)
	assert.WithinDuration(t, time.Now(), second[0].EnrichedAt, time.Minute)
}

func TestEnricher_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnricher(fetchFunc(func(context.Context, string) (string, error) {
		return "", errors.New("unreachable")
	}), EnricherConfig{MaxDetails: 2, DetailDelay: time.Second}, nil)

	_, err := e.Enrich(ctx, stubs(2))
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeCanceled, models.ErrorCode(err))
}

func TestJob_Run(t *testing.T) {
	first := listHTML([]int{1, 2, 3}, "")
	pages := fetchFunc(func(_ context.Context, url string) (string, error) {
		if url == listURL {
			return first, nil
		}
		return detailHTML("2/5", strings.Repeat("Madde. ", 30)+" Kanunlaştı"), nil
	})

	p := NewPaginator(pages, nil, PaginatorConfig{MaxPages: 5})
	p.sleep = noSleep
	job := &Job{
		ListURL:   listURL,
		Paginator: p,
		Enricher:  NewEnricher(pages, EnricherConfig{MaxDetails: 1}, nil),
	}

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, StopNoNext, res.StopReason)
	assert.Equal(t, 1, res.Enrich.Enriched)

	assert.Equal(t, "2/5", res.Records[0].CaseNumber)
	assert.Equal(t, "2/2", res.Records[1].CaseNumber, "row value kept for unenriched record")
	assert.Equal(t, 3, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.Enriched)
	assert.Equal(t, 1, res.Summary.Pages)
}

func TestJob_RunEmpty(t *testing.T) {
	p := NewPaginator(firstPage{err: models.NewScrapeError(models.ErrCodeNetwork, "down", nil)}, nil, PaginatorConfig{MaxPages: 5})
	job := &Job{ListURL: listURL, Paginator: p}

	res, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
}

type fakeSearcher struct {
	html string
	err  error
	got  config.SearchConfig
}

func (s *fakeSearcher) SubmitSearch(_ context.Context, opts config.SearchConfig) (string, error) {
	s.got = opts
	return s.html, s.err
}

func TestSearchFetcher(t *testing.T) {
	opts := config.SearchConfig{Enabled: true, Keyword: "vergi", Term: "Son Dönem"}

	ok := &fakeSearcher{html: "results"}
	got, err := SearchFetcher{Pages: firstPage{html: "form"}, Searcher: ok, Options: opts}.Fetch(context.Background(), listURL)
	require.NoError(t, err)
	assert.Equal(t, "results", got)
	assert.Equal(t, "vergi", ok.got.Keyword)

	failing := &fakeSearcher{err: errors.New("no submit button")}
	got, err = SearchFetcher{Pages: firstPage{html: "form"}, Searcher: failing, Options: opts}.Fetch(context.Background(), listURL)
	require.NoError(t, err)
	assert.Equal(t, "form", got)
}
