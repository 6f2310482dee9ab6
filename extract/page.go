package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/selector"
)

// ListPage is the parsed form of one results page.
type ListPage struct {
	// Rows are the valid rows in page order.
	Rows []Row

	// Source names where the rows came from: the results table query,
	// "links", or "" when nothing was found.
	Source string

	// Next is the located "next page" control, nil when there is none.
	Next *selector.Match

	// NextHref is the absolute target of Next when it is a plain link.
	NextHref string
}

// HasNext reports whether an enabled next-page control exists.
func (p *ListPage) HasNext() bool {
	return p.Next != nil && !selector.IsDisabled(p.Next.Selection)
}

// ParseListPage extracts the rows and the pagination control of a list
// page. Rows come from the best results table. Only a page without any
// table falls back to its proposal links; a table with no valid row is an
// empty page.
func ParseListPage(rawHTML, pageURL string) (*ListPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "bad page url", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse list page: %w", err)
	}

	page := &ListPage{}
	if m, ok := selector.Resolve(doc.Selection, selector.ResultTables, selector.PickMostRows); ok {
		for _, cells := range TableRows(m.Selection, base) {
			if row, ok := ExtractRow(cells); ok {
				page.Rows = append(page.Rows, row)
			}
		}
		if len(page.Rows) > 0 {
			page.Source = m.Candidate.Query
		}
		slog.Debug("extract: results table", "query", m.Candidate.Query, "rows", len(page.Rows))
	} else {
		for _, l := range DiscoverLinks(doc.Selection, base) {
			page.Rows = append(page.Rows, l.Row())
		}
		if len(page.Rows) > 0 {
			page.Source = "links"
		}
	}

	if page.Source == "" {
		slog.Warn("extract: nothing found on list page",
			"url", pageURL,
			"code", models.ErrCodeExtractionMiss,
		)
	}

	if m, ok := selector.Resolve(doc.Selection, selector.NextControls, selector.PickFirst); ok {
		page.Next = m
		if href, ok := resolveHref(base, m.Selection.AttrOr("href", "")); ok {
			page.NextHref = href
		}
	}
	return page, nil
}
