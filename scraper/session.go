package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/tbmm-scraper/config"
	"github.com/use-agent/tbmm-scraper/fetcher"
	"github.com/use-agent/tbmm-scraper/models"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Session is one browser with one tab, owned by a single run. Pages are
// loaded one after another; the session is not safe for concurrent use.
//
// Create it with NewSession and release it with a deferred Close.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	cfg     config.ScraperConfig
	settled bool
}

// NewSession launches the browser and opens the tab every page is loaded
// in. A failure here is fatal for the run.
func NewSession(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Session, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "tr-TR")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open tab",
			err,
		)
	}

	s := &Session{
		browser: browser,
		page:    page,
		cfg:     scraperCfg,
	}
	s.prepare()
	return s, nil
}

// prepare installs stealth, headers and resource blocking on the tab. All
// of it must be in place before the first navigation.
func (s *Session) prepare() {
	if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
	}

	if err := (proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
	}).Call(s.page); err != nil {
		slog.Debug("user agent override failed", "error", err)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
		}),
	}.Call(s.page)

	s.router = setupHijack(s.page, s.cfg.BlockedResourceTypes)
}

// Load navigates the tab to url and returns the rendered HTML. The first
// load also waits SettleDelay so a bot-protection interstitial can clear.
func (s *Session) Load(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.navTimeout())
	defer cancel()
	p := s.page.Context(ctx)

	if err := p.Navigate(url); err != nil {
		return "", categorizeError(err, "navigation to "+url+" failed")
	}
	s.waitSettled(p)

	if !s.settled {
		s.settled = true
		if s.cfg.SettleDelay > 0 {
			slog.InfoContext(ctx, "waiting for the page to settle", "delay", s.cfg.SettleDelay)
			if err := fetcher.Sleep(ctx, s.cfg.SettleDelay); err != nil {
				return "", categorizeError(err, "interrupted while settling")
			}
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", categorizeError(err, "failed to read page HTML")
	}
	return html, nil
}

// Reread returns the HTML of the page already loaded, without navigating.
func (s *Session) Reread(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.navTimeout())
	defer cancel()

	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to re-read page HTML")
	}
	return html, nil
}

// URL returns the address of the loaded page, or "" when unknown.
func (s *Session) URL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close stops request interception and shuts the browser down. It is safe
// to call on every exit path.
func (s *Session) Close() {
	if s == nil || s.browser == nil {
		return
	}
	if s.router != nil {
		_ = s.router.Stop()
	}
	if err := s.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
		return
	}
	slog.Info("browser closed")
}

// waitSettled waits for the load event and a stable DOM. Both are best
// effort: a page that never settles is read as it is.
func (s *Session) waitSettled(p *rod.Page) {
	if err := p.WaitLoad(); err != nil {
		slog.Debug("WaitLoad did not complete, proceeding with current DOM", "error", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

func (s *Session) navTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return 30 * time.Second
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw browser errors into typed ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeCanceled, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
