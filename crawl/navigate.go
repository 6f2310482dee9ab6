package crawl

import (
	"context"
	"log/slog"

	"github.com/use-agent/tbmm-scraper/extract"
	"github.com/use-agent/tbmm-scraper/models"
	"github.com/use-agent/tbmm-scraper/selector"
)

// LinkNavigator follows the next control's href with a plain page fetch.
// It serves list pages whose pagination is made of ordinary links.
type LinkNavigator struct {
	Fetch PageFetcher
}

func (n LinkNavigator) Next(ctx context.Context, current *extract.ListPage, _ string) (string, string, error) {
	if current == nil || current.NextHref == "" {
		return "", "", models.NewScrapeError(models.ErrCodeNavigation, "next control has no link target", nil)
	}
	html, err := n.Fetch.Fetch(ctx, current.NextHref)
	if err != nil {
		return "", "", err
	}
	return html, current.NextHref, nil
}

// Clicker activates an element in a live page and returns the page after
// it settles. scraper.Session implements it.
type Clicker interface {
	Advance(ctx context.Context, c selector.Candidate, index int) (html, pageURL string, err error)
}

// ClickNavigator clicks the next control in the browser. Postback style
// pagination only works this way. When the click fails and the control is
// a real link, the link is fetched instead.
type ClickNavigator struct {
	Clicker  Clicker
	Fallback *LinkNavigator
}

func (n ClickNavigator) Next(ctx context.Context, current *extract.ListPage, currentURL string) (string, string, error) {
	if current == nil || current.Next == nil {
		return "", "", models.NewScrapeError(models.ErrCodeNavigation, "no next control", nil)
	}
	html, pageURL, err := n.Clicker.Advance(ctx, current.Next.Candidate, current.Next.Index)
	if err == nil {
		if pageURL == "" {
			pageURL = currentURL
		}
		return html, pageURL, nil
	}
	if ctx.Err() != nil || n.Fallback == nil || current.NextHref == "" {
		return "", "", err
	}
	slog.WarnContext(ctx, "next control click failed, following link",
		"control", current.Next.Candidate.String(),
		"href", current.NextHref,
		"error", err,
	)
	return n.Fallback.Next(ctx, current, currentURL)
}
