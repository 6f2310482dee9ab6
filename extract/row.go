package extract

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/tbmm-scraper/models"
)

// caseShapeRe matches a cell holding a single "digits/digits" pair, so a
// date such as 12/03/2024 is not taken for a case number.
var caseShapeRe = regexp.MustCompile(`^\D*\d+\s*/\s*\d+\D*$`)

// Cell is one table cell. Href is absolute when the cell holds a link.
type Cell struct {
	Text     string
	LinkText string
	Href     string
}

// Row is what a results table row yields before it becomes a record.
type Row struct {
	Sira        string
	Title       string
	Link        string
	CaseNumber  string
	TermSession string
	Status      string

	// Extra holds unclassified cells keyed "field_<index>".
	Extra map[string]string
}

// ExtractRow classifies cells in position order. For each cell the first
// rule that applies wins:
//
//  1. a link, while no title is set yet: title and link
//  2. the first cell: sira (row ordinal)
//  3. "esas" or a digits/digits shape: case number
//  4. "dönem" or "yasama": term/session
//  5. a known status label: status
//  6. anything else: field_<index>
//
// The boolean is false when the row has no link or its title is shorter
// than models.MinTitleLength; such rows are discarded.
func ExtractRow(cells []Cell) (Row, bool) {
	var r Row
	for idx, c := range cells {
		text := strings.TrimSpace(c.Text)

		if c.Href != "" && r.Link == "" {
			title := strings.TrimSpace(c.LinkText)
			if title == "" {
				title = text
			}
			r.Title, r.Link = title, c.Href
			continue
		}
		if text == "" {
			continue
		}

		folded := lowerTR(text)
		switch {
		case idx == 0:
			r.Sira = text
		case strings.Contains(folded, "esas") || caseShapeRe.MatchString(text):
			if r.CaseNumber == "" || r.CaseNumber == models.Unknown {
				r.CaseNumber = CaseNumber(text)
			}
		case strings.Contains(folded, "dönem") || strings.Contains(folded, "yasama"):
			if r.TermSession == "" || r.TermSession == models.Unknown {
				r.TermSession = TermSession(text)
			}
		case MatchStatus(text) != "":
			r.Status = MatchStatus(text)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[models.ExtraKey(idx)] = text
		}
	}

	if r.Link == "" || utf8.RuneCountInString(r.Title) < models.MinTitleLength {
		return Row{}, false
	}
	return r, true
}

// Proposal converts the row into a stub record stamped with fetchedAt.
func (r Row) Proposal(fetchedAt time.Time) *models.Proposal {
	p := models.NewStub(r.Title, r.Link, fetchedAt)
	if r.CaseNumber != "" {
		p.CaseNumber = r.CaseNumber
	}
	if r.TermSession != "" {
		p.TermSession = r.TermSession
	}
	p.Status = r.Status
	if len(r.Extra) > 0 {
		p.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			p.Extra[k] = v
		}
	}
	return p
}

// TableRows walks the rows of a results table. A leading header row (first
// cell is th) and rows with fewer than two cells are skipped. Links are
// resolved against base.
func TableRows(table *goquery.Selection, base *url.URL) [][]Cell {
	var rows [][]Cell
	headerSeen := false
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("th, td")
		if !headerSeen && cells.Length() > 0 && goquery.NodeName(cells.First()) == "th" {
			headerSeen = true
			return
		}
		if cells.Length() < 2 {
			return
		}
		row := make([]Cell, 0, cells.Length())
		cells.Each(func(_ int, td *goquery.Selection) {
			c := Cell{Text: collapseSpace(td.Text())}
			if a := td.Find("a[href]").First(); a.Length() > 0 {
				href, _ := a.Attr("href")
				if abs, ok := resolveHref(base, href); ok {
					c.Href = abs
					c.LinkText = collapseSpace(a.Text())
				}
			}
			row = append(row, c)
		})
		rows = append(rows, row)
	})
	return rows
}

// resolveHref makes href absolute against base. Empty, fragment-only and
// javascript: links are rejected.
func resolveHref(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
