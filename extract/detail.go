package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/use-agent/tbmm-scraper/selector"
)

// minDetailText is the length under which the content-area text is treated
// as a miss and readability is tried as well.
const minDetailText = 100

// noiseTags are removed from the content area before its text is read.
const noiseTags = "script, style, nav, header, footer, aside, iframe"

// Detail is what a proposal's detail page yields.
type Detail struct {
	// Text is the newline-joined text of the content area.
	Text   string
	Fields Fields

	// Status is "" when the text names no known status.
	Status string

	// Area is the candidate query that located the content ("" on a miss).
	Area string
}

// ExtractDetail reads the body text of a detail page and derives the
// case number, term/session and status from it.
func ExtractDetail(rawHTML, pageURL string) Detail {
	var d Detail

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Warn("extract: unparseable detail page", "url", pageURL, "error", err)
		d.Fields = ExtractFields("")
		return d
	}

	if m, ok := selector.Resolve(doc.Selection, selector.ContentAreas, selector.PickFirst); ok {
		m.Selection.Find(noiseTags).Remove()
		d.Text = JoinText(m.Selection)
		d.Area = m.Candidate.Query
	} else {
		slog.Warn("extract: no content area", "url", pageURL)
	}

	if len(d.Text) < minDetailText {
		slog.Warn("extract: detail text short", "url", pageURL, "length", len(d.Text))
		if alt := readableText(rawHTML, pageURL); len(alt) > len(d.Text) {
			d.Text = alt
		}
	}

	d.Fields = ExtractFields(d.Text)
	d.Status = MatchStatus(d.Text)
	return d
}

// JoinText returns the trimmed, non-empty text nodes under s joined with
// newlines.
func JoinText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// readableText runs the readability algorithm and returns its text in the
// same line-per-fragment shape as JoinText. Failures yield "".
func readableText(rawHTML, pageURL string) string {
	parsedURL, err := nurl.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("extract: readability failed", "url", pageURL, "error", err)
		return ""
	}

	var lines []string
	for _, line := range strings.Split(article.TextContent, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}
