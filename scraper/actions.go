package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/selector"
)

// actionTimeout is the per-action deadline.
const actionTimeout = 10 * time.Second

// Advance clicks the index-th element matched by c (the same element
// selector.Resolve picked from the page HTML) and returns the page once it
// has settled.
func (s *Session) Advance(ctx context.Context, c selector.Candidate, index int) (string, string, error) {
	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	els, err := matchElements(s.page.Context(actionCtx), c)
	cancel()
	if err != nil {
		return "", "", categorizeError(err, "next control lookup failed")
	}
	if index < 0 || index >= len(els) {
		return "", "", models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("next control %s: want match %d, page has %d", c, index, len(els)), nil)
	}

	if err := s.click(ctx, els[index]); err != nil {
		return "", "", err
	}

	html, err := s.Reread(ctx)
	if err != nil {
		return "", "", err
	}
	return html, s.URL(), nil
}

// SubmitSearch fills in the list page's search form and submits it. Every
// field is optional: a missing input or select is logged and skipped. Only
// a missing submit control is an error.
func (s *Session) SubmitSearch(ctx context.Context, opts config.SearchConfig) (string, error) {
	slog.InfoContext(ctx, "filling search form",
		"keyword", opts.Keyword,
		"term", opts.Term,
		"status", opts.Status,
	)

	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()
	p := s.page.Context(actionCtx)

	if opts.Keyword != "" {
		if el, c, ok := firstMatch(p, selector.SearchKeywordInputs); ok {
			if err := typeInto(el, opts.Keyword); err != nil {
				slog.WarnContext(ctx, "keyword not entered", "input", c.Query, "error", err)
			}
		} else {
			slog.WarnContext(ctx, "keyword input not found")
		}
	}
	if opts.Term != "" {
		chooseOption(ctx, p, selector.SearchTermSelects, opts.Term, "term")
	}
	if opts.Status != "" {
		chooseOption(ctx, p, selector.SearchStatusSelects, opts.Status, "status")
	}

	btn, c, ok := firstMatch(p, selector.SearchSubmitControls)
	if !ok {
		return "", models.NewScrapeError(models.ErrCodeExtractionMiss, "search submit control not found", nil)
	}
	slog.InfoContext(ctx, "submitting search", "control", c.String())
	if err := s.click(ctx, btn); err != nil {
		return "", err
	}
	return s.Reread(ctx)
}

// click scrolls el into view, clicks it and waits for the page to settle.
func (s *Session) click(ctx context.Context, el *rod.Element) error {
	actionCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	el = el.Context(actionCtx)
	if err := el.ScrollIntoView(); err != nil {
		slog.Debug("scroll into view failed", "error", err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click failed")
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, s.navTimeout())
	defer waitCancel()
	s.waitSettled(s.page.Context(waitCtx))
	return ctx.Err()
}

// firstMatch returns the first element matched by the earliest candidate,
// mirroring selector.Resolve on the live page.
func firstMatch(p *rod.Page, cands []selector.Candidate) (*rod.Element, selector.Candidate, bool) {
	for _, c := range cands {
		els, err := matchElements(p, c)
		if err != nil || len(els) == 0 {
			continue
		}
		return els[0], c, true
	}
	return nil, selector.Candidate{}, false
}

// matchElements returns the elements matching c in document order. It does
// not wait for elements to appear.
func matchElements(p *rod.Page, c selector.Candidate) (rod.Elements, error) {
	els, err := p.Elements(c.Query)
	if err != nil {
		return nil, err
	}
	if c.Contains == "" {
		return els, nil
	}
	var out rod.Elements
	for _, el := range els {
		if selector.TextContains(elementLabel(el), c.Contains) {
			out = append(out, el)
		}
	}
	return out, nil
}

// elementLabel is the visible label of el: its text, or the value of a
// button-like input.
func elementLabel(el *rod.Element) string {
	if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
		return text
	}
	if v, err := el.Attribute("value"); err == nil && v != nil {
		return *v
	}
	return ""
}

func typeInto(el *rod.Element, text string) error {
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(text)
}

// chooseOption selects want in the first matching select element: by exact
// option text first, then by case-insensitive partial match.
func chooseOption(ctx context.Context, p *rod.Page, cands []selector.Candidate, want, field string) {
	sel, c, ok := firstMatch(p, cands)
	if !ok {
		slog.WarnContext(ctx, "select not found", "field", field)
		return
	}

	options, err := sel.Elements("option")
	if err != nil {
		slog.WarnContext(ctx, "select options unreadable", "field", field, "select", c.Query, "error", err)
		return
	}

	var exact, partial string
	for _, o := range options {
		text, err := o.Text()
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == want {
			exact = text
			break
		}
		if partial == "" && selector.TextContains(text, want) {
			partial = text
		}
	}
	choice := exact
	if choice == "" {
		choice = partial
	}
	if choice == "" {
		slog.WarnContext(ctx, "no option matches", "field", field, "want", want)
		return
	}
	if err := sel.Select([]string{choice}, true, rod.SelectorTypeText); err != nil {
		slog.WarnContext(ctx, "option not selected", "field", field, "option", choice, "error", err)
		return
	}
	slog.InfoContext(ctx, "option selected", "field", field, "option", choice)
}
