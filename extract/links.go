package extract

import (
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/selector"
)

// proposalHrefKeywords mark hrefs that point at a proposal page.
var proposalHrefKeywords = []string{"kanunteklifi", "kanun_teklifi", "teklif", "/yasa", "/kt"}

// Link is a proposal link found outside a results table.
type Link struct {
	Title string
	Href  string
}

// Row converts the link into a row with only title and link set.
func (l Link) Row() Row {
	return Row{Title: l.Title, Link: l.Href}
}

// DiscoverLinks collects proposal links from a list page that has no
// results table. Sources are tried in order until one yields anchors:
// the list-area candidates, any anchor whose href carries a proposal
// keyword, then anchors inside table cells.
//
// Links are made absolute against base and deduplicated; titles shorter
// than models.MinTitleLength are dropped.
func DiscoverLinks(root *goquery.Selection, base *url.URL) []Link {
	var anchors *goquery.Selection
	source := "list area"
	if m, ok := selector.Resolve(root, selector.ListAreas, selector.PickFirst); ok {
		anchors = m.Selection.Find("a[href]")
	}
	if anchors == nil || anchors.Length() == 0 {
		anchors = root.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			href := strings.ToLower(a.AttrOr("href", ""))
			for _, kw := range proposalHrefKeywords {
				if strings.Contains(href, kw) {
					return true
				}
			}
			return false
		})
		source = "href keywords"
	}
	if anchors.Length() == 0 {
		anchors = root.Find("table tr td a[href]")
		source = "table cells"
	}
	slog.Debug("extract: candidate links", "source", source, "count", anchors.Length())

	var links []Link
	seen := make(map[string]struct{})
	anchors.Each(func(_ int, a *goquery.Selection) {
		abs, ok := resolveHref(base, a.AttrOr("href", ""))
		if !ok {
			return
		}
		title := collapseSpace(a.Text())
		if utf8.RuneCountInString(title) < models.MinTitleLength {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, Link{Title: title, Href: abs})
	})
	return links
}
