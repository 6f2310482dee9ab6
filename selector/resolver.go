// Package selector locates content in documents whose markup shifts over
// time.
//
// Callers describe what they are looking for as an ordered list of
// candidates, most specific first. Resolve returns the first candidate that
// matches anything; a pick strategy chooses among that candidate's matches.
package selector

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidate is one query in a priority list.
type Candidate struct {
	// Query is a CSS selector.
	Query string

	// Contains, when set, keeps only elements whose text contains it,
	// compared case-insensitively with Turkish casing rules.
	Contains string
}

func (c Candidate) String() string {
	if c.Contains == "" {
		return c.Query
	}
	return c.Query + ` [text~"` + c.Contains + `"]`
}

// Match is the element chosen by Resolve.
type Match struct {
	Selection *goquery.Selection

	// Candidate is the entry that produced the match.
	Candidate Candidate

	// Index is the position of Selection among the elements matched by
	// Candidate, so a live browser page can locate the same element.
	Index int
}

// PickFunc returns the index of the preferred element in matches, which is
// never empty.
type PickFunc func(matches *goquery.Selection) int

// PickFirst takes the first match in document order.
func PickFirst(*goquery.Selection) int { return 0 }

// PickMostRows takes the match with the most table rows beneath it. Ties go
// to the earlier element.
func PickMostRows(matches *goquery.Selection) int {
	best, bestRows := 0, -1
	matches.Each(func(i int, s *goquery.Selection) {
		if n := s.Find("tr").Length(); n > bestRows {
			best, bestRows = i, n
		}
	})
	return best
}

// Resolve evaluates candidates in order against root. The first candidate
// with at least one match wins and pick chooses among its matches. The
// boolean is false only when no candidate matches anything.
//
// Candidates whose query does not compile are logged and skipped.
func Resolve(root *goquery.Selection, candidates []Candidate, pick PickFunc) (*Match, bool) {
	if root == nil {
		return nil, false
	}
	if pick == nil {
		pick = PickFirst
	}
	for _, c := range candidates {
		matches, err := FindAll(root, c)
		if err != nil {
			slog.Warn("selector: invalid candidate", "query", c.Query, "error", err)
			continue
		}
		if matches.Length() == 0 {
			continue
		}
		i := pick(matches)
		if i < 0 || i >= matches.Length() {
			i = 0
		}
		return &Match{Selection: matches.Eq(i), Candidate: c, Index: i}, true
	}
	return nil, false
}

// FindAll returns every element under root matched by c, in document order.
// The Contains filter reads an element's text, or its value attribute when
// the text is blank.
func FindAll(root *goquery.Selection, c Candidate) (*goquery.Selection, error) {
	sel, err := cascadia.Compile(c.Query)
	if err != nil {
		return nil, err
	}
	matches := root.FindMatcher(sel)
	if c.Contains == "" {
		return matches, nil
	}
	return matches.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return TextContains(label(s), c.Contains)
	}), nil
}

func label(s *goquery.Selection) string {
	if text := strings.TrimSpace(s.Text()); text != "" {
		return text
	}
	return s.AttrOr("value", "")
}

// TextContains reports whether text contains substr, ignoring case under
// Turkish rules (so "ileri" matches "İleri").
func TextContains(text, substr string) bool {
	return strings.Contains(Fold(text), Fold(substr))
}

// Fold lower-cases s with Turkish casing rules.
func Fold(s string) string {
	return cases.Lower(language.Turkish).String(s)
}

// IsDisabled reports whether a pagination control is switched off: a
// "disabled" class, a disabled or aria-disabled attribute, or a disabled
// parent list item.
func IsDisabled(s *goquery.Selection) bool {
	if s == nil || s.Length() == 0 {
		return true
	}
	if hasDisabledClass(s) {
		return true
	}
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	if v, _ := s.Attr("aria-disabled"); strings.EqualFold(v, "true") {
		return true
	}
	if li := s.Parent(); goquery.NodeName(li) == "li" && hasDisabledClass(li) {
		return true
	}
	return false
}

func hasDisabledClass(s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(class), "disabled")
}
